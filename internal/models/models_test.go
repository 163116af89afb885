package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageURLsDecodesArray(t *testing.T) {
	p := Product{Images: `["https://img.example/a.jpg","https://img.example/b.jpg"]`}
	assert.Equal(t, []string{"https://img.example/a.jpg", "https://img.example/b.jpg"}, p.ImageURLs())
}

func TestImageURLsLegacyBareString(t *testing.T) {
	p := Product{Images: "https://img.example/legacy.jpg"}
	assert.Equal(t, []string{"https://img.example/legacy.jpg"}, p.ImageURLs())
}

func TestImageURLsEmpty(t *testing.T) {
	p := Product{}
	assert.Nil(t, p.ImageURLs())
}

func TestCategorySlugs(t *testing.T) {
	p := Product{Categories: "dogs, food ,treats"}
	assert.Equal(t, []string{"dogs", "food", "treats"}, p.CategorySlugs())
}

func TestCategorySlugsEmpty(t *testing.T) {
	p := Product{}
	assert.Nil(t, p.CategorySlugs())
}

func TestProfileComplete(t *testing.T) {
	assert.True(t, (&Profile{Name: "Ana", Email: "ana@example.com"}).Complete())
	assert.False(t, (&Profile{Name: "Ana"}).Complete())
	assert.False(t, (&Profile{Email: "ana@example.com"}).Complete())
	assert.False(t, (&Profile{Name: "  ", Email: "ana@example.com"}).Complete())
}
