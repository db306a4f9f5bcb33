package security

import (
	"testing"
	"time"
)

func TestValidateURL_AllowsPublicURLs(t *testing.T) {
	guard := NewSSRFGuard()

	tests := []struct {
		name string
		url  string
	}{
		{"HTTPSの公開URL", "https://news.example.com/feed.xml"},
		{"HTTPの公開URL", "http://news.example.com/rss"},
		{"パブリックIP", "https://93.184.216.34/feed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := guard.ValidateURL(tt.url); err != nil {
				t.Errorf("ValidateURL(%q) がエラーを返した: %v", tt.url, err)
			}
		})
	}
}

func TestValidateURL_BlocksDangerousURLs(t *testing.T) {
	guard := NewSSRFGuard()

	tests := []struct {
		name string
		url  string
	}{
		{"空文字列", ""},
		{"fileスキーム", "file:///etc/passwd"},
		{"ftpスキーム", "ftp://example.com/feed"},
		{"javascriptスキーム", "javascript:alert(1)"},
		{"localhost", "http://localhost/feed"},
		{"ループバックIP", "http://127.0.0.1/feed"},
		{"プライベートIP 10系", "http://10.0.0.5/feed"},
		{"プライベートIP 172系", "http://172.16.0.1/feed"},
		{"プライベートIP 192系", "http://192.168.1.1/feed"},
		{"クラウドメタデータIP", "http://169.254.169.254/latest/meta-data/"},
		{"IPv6ループバック", "http://[::1]/feed"},
		{"ホストなし", "https:///feed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := guard.ValidateURL(tt.url); err == nil {
				t.Errorf("ValidateURL(%q) はエラーを返すべき", tt.url)
			}
		})
	}
}

func TestNewSafeClient_ReturnsConfiguredClient(t *testing.T) {
	guard := NewSSRFGuard()

	client := guard.NewSafeClient(10*time.Second, 5*1024*1024)
	if client == nil {
		t.Fatal("NewSafeClient は nil を返してはならない")
	}
}
