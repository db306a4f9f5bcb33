package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// feedCandidate はHTMLから検出されたフィード候補を表す。
type feedCandidate struct {
	url      string
	feedType string // "rss" または "atom"
}

// FeedDiscoverer は設定されたURLからフィードURLを解決する。
// URLが直接フィードを指す場合はそのまま返し、HTMLページの場合は
// headタグのalternateリンクからフィードを自動検出する。
type FeedDiscoverer struct {
	ssrfGuard SSRFValidator
}

// NewFeedDiscoverer はFeedDiscovererの新しいインスタンスを生成する。
func NewFeedDiscoverer(ssrfGuard SSRFValidator) *FeedDiscoverer {
	return &FeedDiscoverer{ssrfGuard: ssrfGuard}
}

var feedContentTypes = []string{
	"application/rss+xml",
	"application/atom+xml",
}

var xmlContentTypes = []string{
	"text/xml",
	"application/xml",
}

// Discover はURLがフィードかHTMLかを判定し、フィードURLを返す。
func (d *FeedDiscoverer) Discover(ctx context.Context, inputURL string) (string, error) {
	if inputURL == "" {
		return "", fmt.Errorf("フィードURLが設定されていません")
	}

	if err := d.ssrfGuard.ValidateURL(inputURL); err != nil {
		return "", fmt.Errorf("SSRF検証に失敗: %w", err)
	}

	const maxBodySize = 5 * 1024 * 1024
	client := d.ssrfGuard.NewSafeClient(10*time.Second, maxBodySize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, inputURL, nil)
	if err != nil {
		return "", fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "Vestgate/1.0 Article Fetcher")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, text/html, */*")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("フィード検出のリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("レスポンスの読み取りに失敗: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")

	if isDirectFeed(contentType, body) {
		return inputURL, nil
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.Contains(strings.ToLower(mediaType), "html") {
		return "", fmt.Errorf("フィードを検出できませんでした: %s", inputURL)
	}

	candidates := parseFeedLinks(body, inputURL)
	if len(candidates) == 0 {
		return "", fmt.Errorf("フィードを検出できませんでした: %s", inputURL)
	}

	return selectBestFeed(candidates, inputURL), nil
}

// isDirectFeed はContent-Typeとボディからレスポンスがフィードかを判定する。
func isDirectFeed(contentType string, body []byte) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	mediaType = strings.ToLower(mediaType)

	for _, feedCT := range feedContentTypes {
		if mediaType == feedCT {
			return true
		}
	}

	// 汎用XML Content-Typeの場合はボディ解析が必要
	isXML := false
	for _, xmlCT := range xmlContentTypes {
		if mediaType == xmlCT {
			isXML = true
			break
		}
	}
	if !isXML || len(body) == 0 {
		return false
	}

	return isFeedXML(body)
}

// isFeedXML はXMLボディの先頭部分を解析してRSS/Atomフィードかを判定する。
func isFeedXML(body []byte) bool {
	checkSize := 4096
	if len(body) < checkSize {
		checkSize = len(body)
	}
	prefix := strings.ToLower(string(body[:checkSize]))

	if strings.Contains(prefix, "<rss") || strings.Contains(prefix, "<rdf:rdf") {
		return true
	}
	return strings.Contains(prefix, "<feed") && strings.Contains(prefix, "http://www.w3.org/2005/atom")
}

// parseFeedLinks はHTMLのheadタグからRSS/Atomフィードリンクを検出する。
// 相対URLはbaseURLを基準に絶対URLに解決される。
func parseFeedLinks(htmlBody []byte, baseURL string) []feedCandidate {
	var candidates []feedCandidate

	baseU, err := url.Parse(baseURL)
	if err != nil {
		return candidates
	}

	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	inHead := false

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return candidates

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tagName := string(tn)

			if tagName == "head" {
				inHead = true
				continue
			}
			if tagName == "body" {
				return candidates
			}
			if !inHead || tagName != "link" || !hasAttr {
				continue
			}

			var rel, linkType, href string
			for {
				key, val, more := tokenizer.TagAttr()
				switch strings.ToLower(string(key)) {
				case "rel":
					rel = strings.ToLower(string(val))
				case "type":
					linkType = strings.ToLower(string(val))
				case "href":
					href = string(val)
				}
				if !more {
					break
				}
			}

			if rel != "alternate" || href == "" {
				continue
			}

			var feedType string
			switch linkType {
			case "application/rss+xml":
				feedType = "rss"
			case "application/atom+xml":
				feedType = "atom"
			default:
				continue
			}

			ref, err := url.Parse(href)
			if err != nil {
				continue
			}

			candidates = append(candidates, feedCandidate{
				url:      baseU.ResolveReference(ref).String(),
				feedType: feedType,
			})

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "head" {
				return candidates
			}
		}
	}
}

// selectBestFeed は複数のフィード候補から最適なフィードを選択する。
// 優先順位: 同一ホスト > Atom > 先頭。
func selectBestFeed(candidates []feedCandidate, inputURL string) string {
	inputHost := extractHost(inputURL)

	bestIdx := 0
	bestScore := -1

	for i, c := range candidates {
		score := 0
		if extractHost(c.url) == inputHost {
			score += 100
		}
		if c.feedType == "atom" {
			score += 10
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	return candidates[bestIdx].url
}

func extractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
