package workout

import (
	"fmt"
	"regexp"
)

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/shorts/([^&\n?#]+)`),
}

// YouTubeID extracts the video id from the usual YouTube url shapes.
func YouTubeID(videoURL string) (string, bool) {
	for _, p := range youtubePatterns {
		if m := p.FindStringSubmatch(videoURL); len(m) > 1 && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

// VideoEmbedURL returns the embeddable url of a YouTube video; other
// video urls are played directly and get no embed url.
func VideoEmbedURL(videoURL string) (string, bool) {
	id, ok := YouTubeID(videoURL)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("https://www.youtube.com/embed/%s?rel=0&modestbranding=1", id), true
}
