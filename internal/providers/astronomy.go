package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/slatepick/slatepick/internal/data/cache"
	"github.com/slatepick/slatepick/internal/fetch"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/registry"
)

// AstronomyClient reads AstronomyAPI for the moon phase. Credentials are the
// app-id/app-secret pair sent as HTTP basic auth. Void-of-course and the
// planetary hour are internal computations layered on top; the API does not
// publish either.
type AstronomyClient struct {
	api     *fetch.Client
	appID   string
	secret  string
	BaseURL string
}

func NewAstronomyClient(api *fetch.Client, appID, secret string) *AstronomyClient {
	return &AstronomyClient{api: api, appID: appID, secret: secret, BaseURL: "https://api.astronomyapi.com"}
}

// Configured requires both halves of the credential pair.
func (c *AstronomyClient) Configured() bool { return c.appID != "" && c.secret != "" }

func (c *AstronomyClient) headers() map[string]string {
	token := base64.StdEncoding.EncodeToString([]byte(c.appID + ":" + c.secret))
	return map[string]string{"Authorization": "Basic " + token}
}

type astronomyPositions struct {
	Data struct {
		Table struct {
			Rows []struct {
				Cells []struct {
					ExtraInfo struct {
						Phase struct {
							String   string `json:"string"`
							Fraction string `json:"fraction"`
						} `json:"phase"`
					} `json:"extraInfo"`
				} `json:"cells"`
			} `json:"rows"`
		} `json:"table"`
	} `json:"data"`
}

// MoonInfo fetches the moon phase for a date and fills the internal fields.
// date is YYYY-MM-DD; observer coordinates are fixed on New York because the
// slate day itself is defined in ET.
func (c *AstronomyClient) MoonInfo(ctx context.Context, date string, at time.Time) (models.MoonInfo, error) {
	if !c.Configured() {
		return models.MoonInfo{}, models.ProviderError(registry.ProviderAstronomy, models.ErrCodeAPIKeyMissing,
			fmt.Errorf("ASTRONOMY_API_ID/ASTRONOMY_API_SECRET not set"))
	}

	u := fmt.Sprintf("%s/api/v2/bodies/positions/moon?latitude=40.71&longitude=-74.01&elevation=10&from_date=%s&to_date=%s&time=12:00:00",
		c.BaseURL, date, date)

	var raw astronomyPositions
	if err := c.api.GetJSON(ctx, registry.ProviderAstronomy, u, c.headers(), cache.TTLAstronomy, &raw); err != nil {
		return models.MoonInfo{}, err
	}

	info := models.MoonInfo{PlanetaryHour: PlanetaryHour(at)}
	rows := raw.Data.Table.Rows
	if len(rows) > 0 && len(rows[0].Cells) > 0 {
		phase := rows[0].Cells[0].ExtraInfo.Phase
		info.Phase = phase.String
		if frac, err := strconv.ParseFloat(strings.TrimSuffix(phase.Fraction, "%"), 64); err == nil {
			if frac > 1 {
				frac /= 100
			}
			info.Illumination = frac
		}
	}
	if info.Phase == "" {
		return info, models.ProviderError(registry.ProviderAstronomy, models.ErrCodeNoDataAvailable,
			fmt.Errorf("positions payload carried no phase"))
	}
	info.VoidOfCourse = approxVoidOfCourse(at)
	return info, nil
}

// FallbackMoon derives phase and illumination from the synodic cycle when
// the API is unconfigured or failing. Reference new moon: 2000-01-06 18:14 UTC.
func FallbackMoon(at time.Time) models.MoonInfo {
	ref := time.Date(2000, 1, 6, 18, 14, 0, 0, time.UTC)
	const synodic = 29.530588853

	days := at.Sub(ref).Hours() / 24
	cycle := days / synodic
	frac := cycle - float64(int64(cycle))
	if frac < 0 {
		frac += 1
	}

	var phase string
	switch {
	case frac < 0.0625 || frac >= 0.9375:
		phase = "New Moon"
	case frac < 0.1875:
		phase = "Waxing Crescent"
	case frac < 0.3125:
		phase = "First Quarter"
	case frac < 0.4375:
		phase = "Waxing Gibbous"
	case frac < 0.5625:
		phase = "Full Moon"
	case frac < 0.6875:
		phase = "Waning Gibbous"
	case frac < 0.8125:
		phase = "Last Quarter"
	default:
		phase = "Waning Crescent"
	}

	// Illumination follows the phase angle: 0 at new, 1 at full.
	illum := 0.5 * (1 - math.Cos(2*math.Pi*frac))
	return models.MoonInfo{
		Phase:         phase,
		Illumination:  illum,
		VoidOfCourse:  approxVoidOfCourse(at),
		PlanetaryHour: PlanetaryHour(at),
	}
}

// chaldeanOrder is the planetary-hour sequence starting from Saturn.
var chaldeanOrder = []string{"Saturn", "Jupiter", "Mars", "Sun", "Venus", "Mercury", "Moon"}

// dayRulerIndex maps weekday to the index of its ruling planet in the
// chaldean order (Sunday=Sun, Monday=Moon, ...).
var dayRulerIndex = map[time.Weekday]int{
	time.Sunday:    3,
	time.Monday:    6,
	time.Tuesday:   2,
	time.Wednesday: 5,
	time.Thursday:  1,
	time.Friday:    4,
	time.Saturday:  0,
}

// PlanetaryHour computes the ruling planet for the hour of t using equal
// hours from midnight. Traditional sunrise-based hours need ephemeris data;
// the equal-hour simplification keeps the signal deterministic.
func PlanetaryHour(t time.Time) string {
	start := dayRulerIndex[t.Weekday()]
	return chaldeanOrder[(start+t.Hour())%len(chaldeanOrder)]
}

// approxVoidOfCourse estimates void-of-course from the moon's mean motion:
// the moon is treated as void in the last 3 degrees of each zodiac sign.
// True void timing needs aspect ephemerides; this keeps the flag
// deterministic and roughly right in frequency.
func approxVoidOfCourse(t time.Time) bool {
	ref := time.Date(2000, 1, 6, 18, 14, 0, 0, time.UTC)
	const meanMotionDegPerDay = 13.176358

	days := t.Sub(ref).Hours() / 24
	longitude := math.Mod(days*meanMotionDegPerDay, 360)
	if longitude < 0 {
		longitude += 360
	}
	return math.Mod(longitude, 30) > 27
}
