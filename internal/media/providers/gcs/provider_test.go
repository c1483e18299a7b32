package gcs

import "testing"

func TestAccessPathGCSDefault(t *testing.T) {
	t.Parallel()
	p := &Provider{bucket: "chat-bucket"}

	got := p.AccessPath("chat-files/1700-a.pdf")
	want := "https://storage.googleapis.com/chat-bucket/chat-files/1700-a.pdf"
	if got != want {
		t.Fatalf("AccessPath: want=%q got=%q", want, got)
	}
}

func TestAccessPathUsesCDNDomain(t *testing.T) {
	t.Parallel()
	p := &Provider{bucket: "chat-bucket", cdnDomain: "https://cdn.example.com/"}

	got := p.AccessPath("/chat-files/pic.png")
	want := "https://cdn.example.com/chat-files/pic.png"
	if got != want {
		t.Fatalf("AccessPath: want=%q got=%q", want, got)
	}
}
