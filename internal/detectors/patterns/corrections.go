package patterns

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// corrections maps known misspellings, lower case, to their fix.
var corrections = map[string]string{
	"teh":        "the",
	"adn":        "and",
	"recieve":    "receive",
	"recieved":   "received",
	"seperate":   "separate",
	"seperately": "separately",
	"occured":    "occurred",
	"occurence":  "occurrence",
	"accomodate": "accommodate",
	"untill":     "until",
	"wich":       "which",
	"thier":      "their",
	"beleive":    "believe",
	"definately": "definitely",
	"goverment":  "government",
	"enviroment": "environment",
	"liason":     "liaison",
	"recipent":   "recipient",

	// Subscription document vocabulary.
	"paymnet":        "payment",
	"subscritpion":   "subscription",
	"subcription":    "subscription",
	"agreemnet":      "agreement",
	"aggreement":     "agreement",
	"partnersihp":    "partnership",
	"comittment":     "commitment",
	"commitement":    "commitment",
	"commited":       "committed",
	"investmnet":     "investment",
	"managment":      "management",
	"persuant":       "pursuant",
	"notwithstandng": "notwithstanding",
	"indemnifcation": "indemnification",
	"benificial":     "beneficial",
	"beneficary":     "beneficiary",
	"signitory":      "signatory",
	"signatary":      "signatory",
	"distrubution":   "distribution",

	// Months.
	"januray":  "January",
	"feburary": "February",
	"febuary":  "February",
	"agust":    "August",
	"septmber": "September",
	"ocotber":  "October",
	"novmber":  "November",
	"decmber":  "December",
}

// typoWords lists the table keys, longest first so the alternation built
// from them prefers whole words.
func typoWords() []string {
	words := make([]string, 0, len(corrections))
	for w := range corrections {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	return words
}

// Correct returns the fix for word, keeping a leading capital.
// ok is false when the word is not in the table.
func Correct(word string) (fix string, ok bool) {
	fix, ok = corrections[strings.ToLower(word)]
	if !ok {
		return "", false
	}
	first, _ := utf8.DecodeRuneInString(word)
	if unicode.IsUpper(first) {
		r, size := utf8.DecodeRuneInString(fix)
		fix = string(unicode.ToUpper(r)) + fix[size:]
	}
	return fix, true
}
