// Package share builds social share links for saved memes and opens them.
package share

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/browser"

	"github.com/jask/jaskmeme/internal/gallery"
	"github.com/jask/jaskmeme/internal/render"
)

// Target is a share destination.
type Target string

const (
	TargetFacebook  Target = "facebook"
	TargetTwitter   Target = "twitter"
	TargetInstagram Target = "instagram"
)

// Targets lists every destination in display order.
func Targets() []Target {
	return []Target{TargetFacebook, TargetTwitter, TargetInstagram}
}

// Label is the display name of t.
func (t Target) Label() string {
	switch t {
	case TargetFacebook:
		return "Facebook"
	case TargetTwitter:
		return "Twitter"
	case TargetInstagram:
		return "Instagram"
	}
	return string(t)
}

// InstagramNotice is shown instead of opening a link for Instagram.
const InstagramNotice = "Instagram does not support sharing directly via links. Please download the meme and upload it manually."

// ErrUnsupportedTarget means the destination has no link-based share flow;
// the user has to download the meme instead.
var ErrUnsupportedTarget = errors.New(InstagramNotice)

// ErrUnknownTarget is returned for destinations this package does not know.
var ErrUnknownTarget = errors.New("share: unknown target")

// ParseTarget maps a user-supplied name to a Target.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Targets() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTarget, s)
}

// Link returns the share URL for memeURL on target. text is the caption
// offered alongside the link where the target supports one.
func Link(target Target, memeURL, text string) (string, error) {
	switch target {
	case TargetFacebook:
		return "https://www.facebook.com/sharer/sharer.php?u=" + encodeURIComponent(memeURL), nil
	case TargetTwitter:
		return "https://twitter.com/intent/tweet?text=" + encodeURIComponent(text) + "&url=" + encodeURIComponent(memeURL), nil
	case TargetInstagram:
		return "", ErrUnsupportedTarget
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTarget, string(target))
}

// uriComponentUnescape undoes the QueryEscape escapes that JavaScript's
// encodeURIComponent leaves alone, and spells spaces as %20.
var uriComponentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent escapes s like JavaScript's function of the same name.
func encodeURIComponent(s string) string {
	return uriComponentUnescape.Replace(url.QueryEscape(s))
}

// Opener navigates to a URL outside the program.
type Opener interface {
	Open(url string) error
}

// BrowserOpener opens URLs in the system browser.
type BrowserOpener struct{}

// NewBrowserOpener silences the helper process output, which would
// otherwise land on the terminal the UI is drawing to.
func NewBrowserOpener() BrowserOpener {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return BrowserOpener{}
}

func (BrowserOpener) Open(u string) error { return browser.OpenURL(u) }

// Publisher uploads a PNG somewhere reachable and returns its URL.
type Publisher interface {
	Publish(ctx context.Context, png []byte) (string, error)
}

// Service shares memes: optionally publishes the raster first so the link
// points at a fetchable URL, then opens the link.
type Service struct {
	Publisher Publisher
	Opener    Opener

	published *lru.Cache[string, string]
}

// NewService returns a Service. Either collaborator may be nil.
func NewService(pub Publisher, opener Opener) *Service {
	cache, _ := lru.New[string, string](128)
	return &Service{Publisher: pub, Opener: opener, published: cache}
}

// Share builds the link for meme on target and opens it. The link is
// returned even when opening fails so the caller can show it.
func (s *Service) Share(ctx context.Context, target Target, meme gallery.Meme, text string) (string, error) {
	if target == TargetInstagram {
		return "", ErrUnsupportedTarget
	}
	if meme == "" {
		return "", errors.New("share: nothing to share yet")
	}
	memeURL, err := s.resolve(ctx, meme)
	if err != nil {
		return "", err
	}
	link, err := Link(target, memeURL, text)
	if err != nil {
		return "", err
	}
	if s.Opener != nil {
		if err := s.Opener.Open(link); err != nil {
			return link, fmt.Errorf("share: open %s: %w", target.Label(), err)
		}
	}
	return link, nil
}

func (s *Service) resolve(ctx context.Context, meme gallery.Meme) (string, error) {
	if s.Publisher == nil {
		return string(meme), nil
	}
	sum := sha256.Sum256([]byte(meme))
	key := hex.EncodeToString(sum[:])
	if s.published != nil {
		if u, ok := s.published.Get(key); ok {
			return u, nil
		}
	}
	_, data, err := render.DecodeDataURL(string(meme))
	if err != nil {
		return "", fmt.Errorf("share: %w", err)
	}
	u, err := s.Publisher.Publish(ctx, data)
	if err != nil {
		return "", fmt.Errorf("share: publish: %w", err)
	}
	if s.published != nil {
		s.published.Add(key, u)
	}
	return u, nil
}
