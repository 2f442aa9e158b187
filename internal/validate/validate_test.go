package validate

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatepick/slatepick/internal/models"
)

func ptr(f float64) *float64 { return &f }

func lebronProp() models.Candidate {
	return models.Candidate{
		PickID:     "pick-lebron",
		EventID:    "evt-lal-den",
		Sport:      models.SportNBA,
		GameID:     "401585601",
		MarketKind: models.MarketPlayerProp,
		Market:     "points",
		Selection:  "LeBron James Over 25.5 points",
		OverUnder:  models.Over,
		Line:       ptr(25.5),
		HomeTeam:   "Los Angeles Lakers",
		AwayTeam:   "Denver Nuggets",
		Player: &models.Player{
			PlayerName:        "LeBron James",
			Team:              "Los Angeles Lakers",
			GamesPlayedSeason: 54,
			ActiveStatus:      "active",
		},
	}
}

func boardSlate() *models.SlateData {
	return &models.SlateData{
		Sport: models.SportNBA,
		Listed: []models.PropOffer{
			{
				Sport:      models.SportNBA,
				GameID:     "401585601",
				PlayerName: "LeBron James",
				Market:     "Points",
				Line:       25.5,
				Side:       models.Over,
			},
		},
	}
}

func runDefault(data *models.SlateData, cands ...models.Candidate) ([]models.Candidate, []Drop) {
	return NewChain(Flags{}, zerolog.Nop()).Run(data, cands)
}

func TestRun_MarketGateCaseInsensitive(t *testing.T) {
	loud := lebronProp()
	loud.Player.PlayerName = "LEBRON JAMES"

	kept, drops := runDefault(boardSlate(), loud)
	require.Len(t, kept, 1)
	assert.Empty(t, drops)
}

func TestRun_MarketGateDropsUnlisted(t *testing.T) {
	avdija := lebronProp()
	avdija.PickID = "pick-avdija"
	avdija.Selection = "Deni Avdija Over 10.5 points"
	avdija.Line = ptr(10.5)
	avdija.Player = &models.Player{
		PlayerName:        "Deni Avdija",
		Team:              "Los Angeles Lakers",
		GamesPlayedSeason: 60,
		ActiveStatus:      "active",
	}

	kept, drops := runDefault(boardSlate(), avdija)
	assert.Empty(t, kept)
	require.Len(t, drops, 1)
	assert.Equal(t, "pick-avdija", drops[0].PickID)
	assert.Equal(t, ReasonMarketDelisted, drops[0].ReasonCode)
	assert.Equal(t, ValidatorMarket, drops[0].Validator)
}

func TestRun_EmptyIndexAllowsAll(t *testing.T) {
	data := boardSlate()
	data.Listed = nil

	kept, drops := runDefault(data, lebronProp())
	assert.Len(t, kept, 1)
	assert.Empty(t, drops)
}

func TestRun_IntegrityMissingKeys(t *testing.T) {
	noLine := lebronProp()
	noLine.Line = nil
	noLine.OverUnder = ""

	kept, drops := runDefault(boardSlate(), noLine)
	assert.Empty(t, kept)
	require.Len(t, drops, 1)
	assert.Equal(t, ReasonMissingKeys, drops[0].ReasonCode)
	assert.Contains(t, drops[0].Detail, "line")
	assert.Contains(t, drops[0].Detail, "side")
}

func TestRun_IntegrityTeamMismatch(t *testing.T) {
	wrongTeam := lebronProp()
	wrongTeam.Player.Team = "Boston Celtics"

	_, drops := runDefault(boardSlate(), wrongTeam)
	require.Len(t, drops, 1)
	assert.Equal(t, ReasonTeamMismatch, drops[0].ReasonCode)
}

func TestRun_IntegrityRosterChecks(t *testing.T) {
	rookie := lebronProp()
	rookie.Player.GamesPlayedSeason = 0
	_, drops := runDefault(boardSlate(), rookie)
	require.Len(t, drops, 1)
	assert.Equal(t, ReasonNoGames, drops[0].ReasonCode)

	benched := lebronProp()
	benched.Player.ActiveStatus = "Inactive"
	_, drops = runDefault(boardSlate(), benched)
	require.Len(t, drops, 1)
	assert.Equal(t, ReasonInactive, drops[0].ReasonCode)
}

func TestRun_InjuryGuard(t *testing.T) {
	data := boardSlate()
	data.Injuries = []models.InjuryRecord{
		{PlayerName: "LeBron James", Team: "Los Angeles Lakers", Status: models.InjuryOut},
	}

	kept, drops := runDefault(data, lebronProp())
	assert.Empty(t, kept)
	require.Len(t, drops, 1)
	assert.Equal(t, ReasonInjuryOut, drops[0].ReasonCode)
	assert.Equal(t, ValidatorInjury, drops[0].Validator)

	data.Injuries[0].Status = models.InjurySuspended
	_, drops = runDefault(data, lebronProp())
	require.Len(t, drops, 1)
	assert.Equal(t, ReasonInjurySusp, drops[0].ReasonCode)
}

func TestRun_OptionalInjuryFlags(t *testing.T) {
	data := boardSlate()
	data.Injuries = []models.InjuryRecord{
		{PlayerName: "LeBron James", Status: models.InjuryDoubtful},
	}

	kept, _ := runDefault(data, lebronProp())
	assert.Len(t, kept, 1, "DOUBTFUL passes by default")

	kept, drops := NewChain(Flags{BlockDoubtful: true}, zerolog.Nop()).Run(data, []models.Candidate{lebronProp()})
	assert.Empty(t, kept)
	require.Len(t, drops, 1)
	assert.Equal(t, ReasonInjuryDoubt, drops[0].ReasonCode)

	data.Injuries[0].Status = models.InjuryQuestionable
	kept, _ = runDefault(data, lebronProp())
	assert.Len(t, kept, 1, "GTD passes by default")

	kept, drops = NewChain(Flags{BlockGTD: true}, zerolog.Nop()).Run(data, []models.Candidate{lebronProp()})
	assert.Empty(t, kept)
	require.Len(t, drops, 1)
	assert.Equal(t, ReasonInjuryGTD, drops[0].ReasonCode)
}

func TestRun_GameLinesPassThrough(t *testing.T) {
	data := boardSlate()
	data.Injuries = []models.InjuryRecord{
		{PlayerName: "Anthony Davis", Team: "Los Angeles Lakers", Status: models.InjuryOut},
	}

	spread := models.Candidate{
		PickID:     "pick-spread",
		EventID:    "evt-lal-den",
		Sport:      models.SportNBA,
		GameID:     "401585601",
		MarketKind: models.MarketSpread,
		Selection:  "Los Angeles Lakers -3.5",
		PickSide:   "Los Angeles Lakers",
		Line:       ptr(-3.5),
		HomeTeam:   "Los Angeles Lakers",
		AwayTeam:   "Denver Nuggets",
	}

	kept, drops := runDefault(data, spread)
	require.Len(t, kept, 1)
	assert.Empty(t, drops)

	results := kept[0].ValidatorResults
	require.Len(t, results, 3)
	assert.Equal(t, ValidatorIntegrity, results[0].Validator)
	assert.Equal(t, ValidatorInjury, results[1].Validator)
	assert.Equal(t, ValidatorMarket, results[2].Validator)
	for _, r := range results {
		assert.True(t, r.Passed)
	}
}

func TestRun_FirstFailingValidatorWins(t *testing.T) {
	data := boardSlate()
	data.Injuries = []models.InjuryRecord{
		{PlayerName: "LeBron James", Status: models.InjuryOut},
	}
	broken := lebronProp()
	broken.Line = nil

	_, drops := runDefault(data, broken)
	require.Len(t, drops, 1, "one drop record per candidate")
	assert.Equal(t, ValidatorIntegrity, drops[0].Validator)
	assert.Equal(t, ReasonMissingKeys, drops[0].ReasonCode)
}

func TestRun_NeverMutatesInput(t *testing.T) {
	input := []models.Candidate{lebronProp()}
	kept, _ := runDefault(boardSlate(), input...)

	assert.Nil(t, input[0].ValidatorResults)
	require.Len(t, kept, 1)
	kept[0].Player.PlayerName = "someone else"
	assert.Equal(t, "LeBron James", input[0].Player.PlayerName)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "pj tucker", normalizeName("P.J.  Tucker"))
	assert.Equal(t, "deaaron fox", normalizeName("De'Aaron Fox"))
	assert.Equal(t, "lebron james", normalizeName(" LEBRON JAMES "))
}
