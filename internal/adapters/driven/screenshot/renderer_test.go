package screenshot

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return "mem://" + key, nil
}

func testDocument() (*domain.RawDocument, *domain.Document) {
	raw := &domain.RawDocument{FileName: "Northwind Subscription (v2).pdf", MIMEType: "application/pdf", Content: []byte("%PDF-1.7 test")}
	doc := &domain.Document{
		FileName: raw.FileName,
		Pages: []string{
			"1. Definitions\nThe Investor agrees to the terms in Section 4.",
			"2. Subscription\nSee Section 9.4 for teh transfer restrictions.",
		},
		Backend: "native",
	}
	return raw, doc
}

func TestRenderer_Capture(t *testing.T) {
	store := newMemoryStore()
	r := NewRenderer(store)
	raw, doc := testDocument()

	url, err := r.Capture(context.Background(), raw, doc, 2)
	require.NoError(t, err)

	key := ObjectKey(raw, doc, 2)
	assert.Equal(t, "mem://"+key, url)
	assert.Equal(t, "image/png", store.types[key])

	img, err := png.Decode(bytes.NewReader(store.objects[key]))
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, img.Bounds().Dx())
	assert.Equal(t, DefaultHeight, img.Bounds().Dy())

	// Some text was drawn in the body
	dark := 0
	for y := margin; y < DefaultHeight/2; y++ {
		for x := margin; x < DefaultWidth-margin; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r < 0x8000 && g < 0x8000 && b < 0x8000 {
				dark++
			}
		}
	}
	assert.Greater(t, dark, 50)
}

func TestRenderer_CaptureRejectsBadPage(t *testing.T) {
	r := NewRenderer(newMemoryStore())
	raw, doc := testDocument()

	for _, page := range []int{0, 3, -1} {
		_, err := r.Capture(context.Background(), raw, doc, page)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "page %d", page)
	}

	_, err := r.Capture(context.Background(), raw, nil, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRenderer_CaptureCancelled(t *testing.T) {
	store := newMemoryStore()
	r := NewRenderer(store)
	raw, doc := testDocument()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Capture(ctx, raw, doc, 1)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.objects)
}

func TestRenderer_CaptureStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("bucket unavailable")
	raw, doc := testDocument()

	_, err := NewRenderer(store).Capture(context.Background(), raw, doc, 1)

	assert.EqualError(t, err, "bucket unavailable")
}

func TestRenderer_WithSize(t *testing.T) {
	_, doc := testDocument()

	data, err := NewRenderer(newMemoryStore(), WithSize(400, 300)).Render(doc, 1)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())

	r := NewRenderer(newMemoryStore(), WithSize(10, 10))
	assert.Equal(t, DefaultWidth, r.width, "too small for the margins")
}

func TestRenderer_LongPageIsTruncated(t *testing.T) {
	doc := &domain.Document{FileName: "long.pdf", Pages: []string{strings.Repeat("line of text\n", 500)}, Approximate: true}

	data, err := NewRenderer(newMemoryStore()).Render(doc, 1)

	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		columns int
		want    []string
	}{
		{"fits", "short line", 20, []string{"short line"}},
		{"word boundary", "the quick brown fox", 10, []string{"the quick", "brown fox"}},
		{"keeps blank lines", "a\n\nb", 10, []string{"a", "", "b"}},
		{"splits long words", "abcdefghij kl", 4, []string{"abcd", "efgh", "ij", "kl"}},
		{"tabs expand", "a\tb", 20, []string{"a b"}},
		{"zero columns", "text", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Wrap(tt.text, tt.columns))
		})
	}
}

func TestWrap_NeverExceedsColumns(t *testing.T) {
	text := "Clause 14.2(b) survives termination; see Schedule 3 § the Subscriber's representations apply."
	for _, line := range Wrap(text, 16) {
		assert.LessOrEqual(t, utf8.RuneCountInString(line), 16, line)
	}
}

func TestObjectKey(t *testing.T) {
	raw, doc := testDocument()

	key := ObjectKey(raw, doc, 7)

	assert.True(t, strings.HasPrefix(key, "Northwind-Subscription-v2/"), key)
	assert.True(t, strings.HasSuffix(key, "/page-007.png"), key)
	assert.Equal(t, key, ObjectKey(raw, doc, 7), "stable for the same upload")

	other := &domain.RawDocument{FileName: raw.FileName, Content: []byte("%PDF-1.7 different")}
	assert.NotEqual(t, key, ObjectKey(other, doc, 7))

	noRaw := ObjectKey(nil, &domain.Document{FileName: "", Pages: []string{"x"}}, 1)
	assert.True(t, strings.HasPrefix(noRaw, "document/"), noRaw)
}
