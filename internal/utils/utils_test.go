package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"
)

func pngOfSize(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestDownscaleImageKeepsSmallImages(t *testing.T) {
	raw := pngOfSize(t, 200, 100)

	out, err := DownscaleImage(bytes.NewReader(raw), 1600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Resized {
		t.Fatal("small image should not be resized")
	}
	if !bytes.Equal(out.Data, raw) {
		t.Fatal("small image bytes should pass through untouched")
	}
	if out.ContentType != "image/png" {
		t.Fatalf("content type = %q", out.ContentType)
	}
}

func TestDownscaleImageShrinksLongestEdge(t *testing.T) {
	raw := pngOfSize(t, 400, 2000)

	out, err := DownscaleImage(bytes.NewReader(raw), 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Resized {
		t.Fatal("expected resize")
	}
	if out.Dimensions.Height != 1000 || out.Dimensions.Width != 200 {
		t.Fatalf("unexpected dimensions %+v", out.Dimensions)
	}
}

func TestDownscaleImageRejectsNonImages(t *testing.T) {
	if _, err := DownscaleImage(bytes.NewReader([]byte("not an image")), 100); err != ErrUnsupportedImage {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"lamp.jpg":              "lamp.jpg",
		"../../etc/passwd":      "passwd",
		"my desk lamp (1).png":  "my_desk_lamp_1_.png",
		"C:\\Users\\me\\a b.jpg": "a_b.jpg",
		"...":                   "upload",
	}
	for in, want := range tests {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("uid-1", "a@uni.edu", "secret", "campusride", time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token, "secret", "campusride")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "uid-1" || claims.Email != "a@uni.edu" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := ValidateToken(token, "other-secret", "campusride"); err == nil {
		t.Fatal("expected signature failure")
	}
	if _, err := ValidateToken(token, "secret", "someone-else"); err == nil {
		t.Fatal("expected issuer failure")
	}
}

func TestPaginationNormalize(t *testing.T) {
	p := &PaginationParams{Page: 0, PageSize: 1000, Sort: "password", Order: "sideways"}
	p.Normalize("price")

	if p.Page != 1 || p.PageSize != MaxPageSize || p.Sort != "created_at" || p.Order != "desc" {
		t.Fatalf("unexpected normalized params %+v", p)
	}

	p = &PaginationParams{Page: 3, PageSize: 10, Sort: "price", Order: "asc"}
	p.Normalize("price")
	if p.Sort != "price" {
		t.Fatalf("allowed sort dropped: %+v", p)
	}

	start, end := p.Window(25)
	if start != 20 || end != 25 {
		t.Fatalf("Window(25) = %d,%d", start, end)
	}
}
