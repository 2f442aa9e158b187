package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/slatepick/slatepick/internal/data/cache"
	"github.com/slatepick/slatepick/internal/fetch"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
)

// TwitterClient reads recent tweet-count buckets for a matchup. Volume and
// velocity feed the noosphere signal; content is never fetched.
type TwitterClient struct {
	api     *fetch.Client
	bearer  string
	BaseURL string
}

func NewTwitterClient(api *fetch.Client, bearer string) *TwitterClient {
	return &TwitterClient{api: api, bearer: bearer, BaseURL: "https://api.twitter.com"}
}

func (c *TwitterClient) Configured() bool { return c.bearer != "" }

func (c *TwitterClient) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.bearer}
}

type tweetCounts struct {
	Data []struct {
		TweetCount int `json:"tweet_count"`
	} `json:"data"`
	Meta struct {
		TotalTweetCount int `json:"total_tweet_count"`
	} `json:"meta"`
}

// Pulse returns chatter volume for the matchup over the last day of hourly
// buckets. Velocity compares the newest bucket against the mean bucket, so
// values above 1 mean accelerating chatter.
func (c *TwitterClient) Pulse(ctx context.Context, ev models.Event) (models.SocialPulse, error) {
	if !c.Configured() {
		return models.SocialPulse{}, models.ProviderError(registry.ProviderTwitter, models.ErrCodeAPIKeyMissing,
			fmt.Errorf("TWITTER_BEARER not set"))
	}

	query := fmt.Sprintf(`"%s" "%s" -is:retweet`, ev.AwayTeam, ev.HomeTeam)
	u := fmt.Sprintf("%s/2/tweets/counts/recent?query=%s&granularity=hour",
		c.BaseURL, url.QueryEscape(query))

	var raw tweetCounts
	if err := c.api.GetJSON(ctx, registry.ProviderTwitter, u, c.headers(), cache.TTLSocial, &raw); err != nil {
		return models.SocialPulse{}, err
	}

	pulse := models.SocialPulse{EventID: ev.EventID, Volume: raw.Meta.TotalTweetCount}
	if pulse.Volume == 0 {
		for _, bucket := range raw.Data {
			pulse.Volume += bucket.TweetCount
		}
	}
	if n := len(raw.Data); n > 0 {
		mean := float64(pulse.Volume) / float64(n)
		if mean > 0 {
			pulse.Velocity = float64(raw.Data[n-1].TweetCount) / mean
		}
	}
	return pulse, nil
}
