package security

import (
	"strings"
	"testing"
)

func TestSanitize_RemovesScriptTags(t *testing.T) {
	s := NewContentSanitizer()

	input := `<p>市場分析</p><script>alert('xss')</script>`
	got := s.Sanitize(input)

	if strings.Contains(got, "<script") || strings.Contains(got, "alert") {
		t.Errorf("scriptタグが除去されていない: %q", got)
	}
	if !strings.Contains(got, "<p>市場分析</p>") {
		t.Errorf("許可タグが失われている: %q", got)
	}
}

func TestSanitize_RemovesEventAttributes(t *testing.T) {
	s := NewContentSanitizer()

	input := `<p onclick="alert(1)">ポートフォリオ入門</p>`
	got := s.Sanitize(input)

	if strings.Contains(got, "onclick") {
		t.Errorf("on*イベント属性が除去されていない: %q", got)
	}
}

func TestSanitize_RemovesIframes(t *testing.T) {
	s := NewContentSanitizer()

	input := `<iframe src="https://evil.example.com"></iframe><p>本文</p>`
	got := s.Sanitize(input)

	if strings.Contains(got, "iframe") {
		t.Errorf("iframeタグが除去されていない: %q", got)
	}
}

func TestSanitize_AllowsOnlyHTTPSImages(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name     string
		input    string
		wantKept bool
	}{
		{"https画像", `<img src="https://cdn.example.com/chart.png" alt="チャート">`, true},
		{"http画像", `<img src="http://cdn.example.com/chart.png">`, false},
		{"javascript疑似スキーム", `<img src="javascript:alert(1)">`, false},
		{"dataスキーム", `<img src="data:text/html,<script>alert(1)</script>">`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			kept := strings.Contains(got, "src=")
			if kept != tt.wantKept {
				t.Errorf("Sanitize(%q) = %q, src保持 = %v, want %v", tt.input, got, kept, tt.wantKept)
			}
		})
	}
}

func TestSanitize_AddsSafeLinkAttributes(t *testing.T) {
	s := NewContentSanitizer()

	input := `<a href="https://news.example.com/article">続きを読む</a>`
	got := s.Sanitize(input)

	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("target=_blank が付与されていない: %q", got)
	}
	if !strings.Contains(got, "noopener") || !strings.Contains(got, "noreferrer") {
		t.Errorf("rel属性が付与されていない: %q", got)
	}
}

func TestSanitize_EmptyInput(t *testing.T) {
	s := NewContentSanitizer()

	if got := s.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want 空文字列", got)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	s := NewContentSanitizer()

	input := `<p>資産運用の<strong>基本</strong></p><script>alert(1)</script>`
	once := s.Sanitize(input)
	twice := s.Sanitize(once)

	if once != twice {
		t.Errorf("冪等でない: 1回目 %q, 2回目 %q", once, twice)
	}
}

func TestStripTags_ReturnsPlainText(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"タグ除去", `<p>入金が<strong>確認</strong>されました</p>`, "入金が確認されました"},
		{"script除去", `通知<script>alert(1)</script>`, "通知"},
		{"前後の空白除去", `  <p>本文</p>  `, "本文"},
		{"プレーンテキストはそのまま", "残高が更新されました", "残高が更新されました"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.StripTags(tt.input); got != tt.want {
				t.Errorf("StripTags(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
