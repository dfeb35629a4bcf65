package snapshot

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestEncodeJPEGDownscales(t *testing.T) {
	out, err := EncodeJPEG(encodePNG(t, 1440, 1080))
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}

	w, h := decodeSize(t, out)
	if w != 720 || h != 540 {
		t.Errorf("snapshot size = %dx%d, want 720x540", w, h)
	}
}

func TestEncodeJPEGKeepsSmallFrames(t *testing.T) {
	out, err := EncodeJPEG(encodePNG(t, 320, 240))
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}

	w, h := decodeSize(t, out)
	if w != 320 || h != 240 {
		t.Errorf("snapshot size = %dx%d, want original 320x240", w, h)
	}
}

func TestEncodeJPEGBadInput(t *testing.T) {
	if _, err := EncodeJPEG([]byte("not an image")); err == nil {
		t.Error("expected error for undecodable input")
	}
}

func TestUploader(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"url": "https://img.example.com/abc.jpg"}`))
	}))
	defer server.Close()

	u := NewUploader(server.URL)
	if !u.Enabled() {
		t.Fatal("uploader with endpoint should be enabled")
	}

	url, err := u.Upload(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "https://img.example.com/abc.jpg" {
		t.Errorf("url = %q", url)
	}
	if gotContentType != "image/jpeg" {
		t.Errorf("content type = %q", gotContentType)
	}
	if string(gotBody) != "jpeg-bytes" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestUploaderErrors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		u := NewUploader("   ")
		if u.Enabled() {
			t.Error("blank endpoint should disable uploads")
		}
		if _, err := u.Upload(context.Background(), []byte("x")); err == nil {
			t.Error("expected error when disabled")
		}
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "full", http.StatusInsufficientStorage)
		}))
		defer server.Close()

		if _, err := NewUploader(server.URL).Upload(context.Background(), []byte("x")); err == nil {
			t.Error("expected error for non-2xx response")
		}
	})

	t.Run("missing url", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		if _, err := NewUploader(server.URL).Upload(context.Background(), []byte("x")); err == nil {
			t.Error("expected error for response without url")
		}
	})
}
