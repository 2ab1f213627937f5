package share

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// DefaultSiteURL is where share links send people to play.
const DefaultSiteURL = "https://drawtree.netlify.app"

// Share targets, used as keys of ShareResult.Links.
const (
	TargetTwitter  = "twitter"
	TargetFacebook = "facebook"
	TargetKakao    = "kakao"
	TargetLink     = "link"
)

const (
	challengeTitle = "🎄트리 그리기 챌린지🎄"
	challengeCall  = "도전하러 가기"
)

// Links builds the per-target share payloads.
type Links struct {
	site string
}

// NewLinks creates a link builder pointing players at site.
func NewLinks(site string) Links {
	if site == "" {
		site = DefaultSiteURL
	}
	return Links{site: site}
}

// Site returns the game URL the links advertise.
func (l Links) Site() string { return l.site }

func scoreMessage(score int) string {
	return fmt.Sprintf("내 점수는 %d점! 너도 도전해볼래?", score)
}

// body is the three-line message shared everywhere: title, site, score.
func (l Links) body(score int) string {
	return challengeTitle + "\n" + l.site + "\n" + scoreMessage(score)
}

// Twitter returns a tweet intent URL carrying the image.
func (l Links) Twitter(imageURL string, score int) string {
	q := url.Values{}
	q.Set("original_referer", imageURL)
	q.Set("url", imageURL)
	q.Set("text", l.body(score))
	return "https://twitter.com/intent/tweet?" + q.Encode()
}

// Facebook returns a share dialog URL for the image.
func (l Links) Facebook(imageURL string, score int) string {
	q := url.Values{}
	q.Set("u", imageURL)
	q.Set("quote", l.body(score))
	return "https://www.facebook.com/share.php?" + q.Encode()
}

type kakaoLink struct {
	MobileWebURL string `json:"mobileWebUrl"`
	WebURL       string `json:"webUrl"`
}

type kakaoContent struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Link        kakaoLink `json:"link"`
}

type kakaoButton struct {
	Title string    `json:"title"`
	Link  kakaoLink `json:"link"`
}

type kakaoFeed struct {
	ObjectType string        `json:"objectType"`
	Content    kakaoContent  `json:"content"`
	Buttons    []kakaoButton `json:"buttons"`
}

// Kakao returns the feed options JSON a client hands to Kakao.Share.sendDefault.
func (l Links) Kakao(imageURL string, score int) (string, error) {
	link := kakaoLink{MobileWebURL: l.site, WebURL: l.site}
	raw, err := json.Marshal(kakaoFeed{
		ObjectType: "feed",
		Content: kakaoContent{
			Title:       challengeTitle,
			Description: scoreMessage(score),
			ImageURL:    imageURL,
			Link:        link,
		},
		Buttons: []kakaoButton{{Title: challengeCall, Link: link}},
	})
	if err != nil {
		return "", fmt.Errorf("kakao feed: %w", err)
	}
	return string(raw), nil
}

// Clipboard returns the text a player copies to paste anywhere.
func (l Links) Clipboard(imageURL string, score int) string {
	return l.body(score) + "\n" + imageURL
}

// All builds every target at once.
func (l Links) All(imageURL string, score int) (map[string]string, error) {
	kakao, err := l.Kakao(imageURL, score)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		TargetTwitter:  l.Twitter(imageURL, score),
		TargetFacebook: l.Facebook(imageURL, score),
		TargetKakao:    kakao,
		TargetLink:     l.Clipboard(imageURL, score),
	}, nil
}
