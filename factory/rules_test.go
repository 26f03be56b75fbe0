package factory_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/nbot-engine/factory"
	"github.com/warp/nbot-engine/generic"
	"github.com/warp/nbot-engine/overtime"
)

func TestParseRules_PartialOverrideKeepsDefaults(t *testing.T) {
	f := factory.NewRulesFactory()

	rules, err := f.ParseRules(`{"weekly_threshold_hours": 37.5, "daily_ot_states": ["ca", "WA"]}`)
	require.NoError(t, err)

	assert.True(t, generic.Hours(37.5).Equal(rules.WeeklyThreshold))
	assert.True(t, generic.Hours(8).Equal(rules.DailyThreshold))
	assert.True(t, generic.Hours(32).Equal(rules.FTEHoursFor("CA")))
	assert.True(t, rules.Classify("WA").HasDailyOT)
	assert.False(t, rules.Classify("NV").HasDailyOT)
	assert.True(t, rules.Classify("CA").HasDoubleTime)
}

func TestParseRules_RejectsInconsistentRules(t *testing.T) {
	f := factory.NewRulesFactory()

	_, err := f.ParseRules(`{"daily_ot_states": ["NV"], "double_time_states": ["CA"]}`)
	assert.ErrorIs(t, err, generic.ErrInvalidRules)

	_, err = f.ParseRules(`{"double_time_threshold_hours": 6}`)
	assert.ErrorIs(t, err, generic.ErrInvalidRules)

	_, err = f.ParseRules(`{not json`)
	assert.Error(t, err)
}

func TestToJSON_RoundTripsDefaults(t *testing.T) {
	f := factory.NewRulesFactory()
	defaults := overtime.DefaultRules()

	data, err := json.Marshal(f.ToJSON(defaults))
	require.NoError(t, err)

	parsed, err := f.ParseRules(string(data))
	require.NoError(t, err)

	assert.True(t, defaults.WeeklyThreshold.Equal(parsed.WeeklyThreshold))
	assert.True(t, defaults.ParetoCutoff.Equal(parsed.ParetoCutoff))
	assert.Equal(t, defaults.DailyOTStates, parsed.DailyOTStates)
	assert.Equal(t, defaults.TenureHighDays, parsed.TenureHighDays)
}

func TestLoadFile(t *testing.T) {
	f := factory.NewRulesFactory()

	rules, err := f.LoadFile("")
	require.NoError(t, err)
	assert.True(t, generic.Hours(40).Equal(rules.WeeklyThreshold))

	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pareto_cutoff_pct": 70, "tenure_days": {"critical": 60}}`), 0o600))

	rules, err = f.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "70", rules.ParetoCutoff.String())
	assert.Equal(t, 60, rules.TenureCriticalDays)

	_, err = f.LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
