package prediction

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePredictionsExtractsArray(t *testing.T) {
	raw := "Here is the assessment:\n```json\n[\n  {\"type\":\"Flash Flood\",\"probability\":65,\"timeframe\":24,\"impactZone\":\"Low-lying areas\",\"weatherConditions\":\"Heavy rain\",\"safetyTips\":[\"Move to higher ground\",\" \"]}\n]\n```"

	preds, err := ParsePredictions(raw)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	require.Equal(t, "Flash Flood", preds[0].Type)
	require.Equal(t, 65, preds[0].Probability)
	require.Equal(t, 24.0, preds[0].TimeframeHours)
	require.Equal(t, []string{"Move to higher ground"}, preds[0].SafetyTips)
}

func TestParsePredictionsClampsAndCoerces(t *testing.T) {
	raw := `[
		{"type":"Landslide","probability":140,"timeframe":"48 hours"},
		{"type":"Wildfire","probability":-5},
		{"type":"Heatwave","probability":"35%"},
		{"probability":90}
	]`

	preds, err := ParsePredictions(raw)
	require.NoError(t, err)
	require.Len(t, preds, 3)
	require.Equal(t, 100, preds[0].Probability)
	require.Equal(t, 48.0, preds[0].TimeframeHours)
	require.Equal(t, 0, preds[1].Probability)
	require.Equal(t, 35, preds[2].Probability)
}

func TestParsePredictionsEmptyArray(t *testing.T) {
	preds, err := ParsePredictions("[]")
	require.NoError(t, err)
	require.Empty(t, preds)
}

func TestParsePredictionsRejectsGarbage(t *testing.T) {
	_, err := ParsePredictions("There is no risk today.")
	require.Error(t, err)

	_, err = ParsePredictions("[not json]")
	require.Error(t, err)
}
