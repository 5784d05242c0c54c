package intercept

import (
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	c := &Classifier{Host: "archive.example.com"}

	cases := []struct {
		name   string
		url    string
		header http.Header
		want   Class
	}{
		{"r2 bucket image", "https://pub-abc.r2.dev/wedding/IMG.jpeg?w=500", nil, ClassImage},
		{"resize proxy", "https://img.cloudflare-gateway.dev/img/wedding/IMG.jpeg", nil, ClassImage},
		{"pub host with image extension", "https://pub-abc.example.net/x.webp", nil, ClassImage},
		{"pub host without image extension", "https://pub-abc.example.net/listing.json", nil, ClassDefault},
		{"legacy thumbnail", "https://drive.google.com/thumbnail?id=1", nil, ClassLegacyThumb},
		{"drive non-thumbnail", "https://drive.google.com/file/d/1", nil, ClassDefault},
		{"relay", "https://api.allorigins.win/raw?url=x", nil, ClassRelay},
		{"relay corsproxy", "https://corsproxy.io/?x", nil, ClassRelay},
		{"navigation sec-fetch", "https://archive.example.com/gallery", http.Header{"Sec-Fetch-Mode": []string{"navigate"}}, ClassNavigation},
		{"navigation accept", "https://archive.example.com/gallery", http.Header{"Accept": []string{"text/html,application/xhtml+xml"}}, ClassNavigation},
		{"static by path", "https://archive.example.com/static/chunk.js", nil, ClassStatic},
		{"static by extension", "https://archive.example.com/font.woff2", nil, ClassStatic},
		{"same-origin api call", "https://archive.example.com/api/categories/dugun", nil, ClassDefault},
		{"cross-origin html", "https://elsewhere.example.com/page", http.Header{"Accept": []string{"text/html"}}, ClassDefault},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, tc.url, nil)
			if err != nil {
				t.Fatal(err)
			}
			for k, vs := range tc.header {
				for _, v := range vs {
					req.Header.Add(k, v)
				}
			}
			if got := c.Classify(req); got != tc.want {
				t.Errorf("Classify(%s) = %v; want %v", tc.url, got, tc.want)
			}
		})
	}
}
