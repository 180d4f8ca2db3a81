package analysis

import "fmt"

// Sample-size bands.
const (
	SmallSample    = 10
	AdequateSample = 30

	// MissingRateWarning is the missing-response rate above which a warning is raised.
	MissingRateWarning = 0.2
)

// Data-quality message codes.
const (
	QualitySampleSmall    = "sample_small"
	QualitySampleModerate = "sample_moderate"
	QualitySampleAdequate = "sample_adequate"
	QualityMissingHigh    = "missing_high"
	QualityMissingOK      = "missing_ok"
	QualityLowCells       = "low_cells"
	QualitySamplingBias   = "sampling_bias"
)

// DataQuality returns at least three messages: the sample-size band, the
// missing-response rate, and fixed notes on low-count cells and sampling bias.
func DataQuality(sampleCount, questionCount, totalAnswers int) []QualityMessage {
	msgs := make([]QualityMessage, 0, 4)

	switch {
	case sampleCount < SmallSample:
		msgs = append(msgs, QualityMessage{
			Level: QualityWarning, Code: QualitySampleSmall,
			Message: fmt.Sprintf("Small sample (n=%d): figures are anecdotal and should not drive decisions on their own", sampleCount),
		})
	case sampleCount < AdequateSample:
		msgs = append(msgs, QualityMessage{
			Level: QualityInfo, Code: QualitySampleModerate,
			Message: fmt.Sprintf("Moderate sample (n=%d): read percentages as directional", sampleCount),
		})
	default:
		msgs = append(msgs, QualityMessage{
			Level: QualityInfo, Code: QualitySampleAdequate,
			Message: fmt.Sprintf("Adequate sample (n=%d) for the distributions reported here", sampleCount),
		})
	}

	rate := MissingRate(sampleCount, questionCount, totalAnswers)
	if rate > MissingRateWarning {
		msgs = append(msgs, QualityMessage{
			Level: QualityWarning, Code: QualityMissingHigh,
			Message: fmt.Sprintf("High missing-response rate (%s): unanswered questions may bias the results", formatPct(rate*100)),
		})
	} else {
		msgs = append(msgs, QualityMessage{
			Level: QualityInfo, Code: QualityMissingOK,
			Message: fmt.Sprintf("Missing-response rate is %s", formatPct(rate*100)),
		})
	}

	msgs = append(msgs,
		QualityMessage{
			Level: QualityInfo, Code: QualityLowCells,
			Message: "Crosstab cells with few respondents are flagged as low-sample; do not generalize from them",
		},
		QualityMessage{
			Level: QualityInfo, Code: QualitySamplingBias,
			Message: "Respondents are self-selected webinar attendees and may not represent the wider market",
		},
	)
	return msgs
}

// MissingRate is 1 - answers / (samples × questions), or 0 when there is
// nothing to answer.
func MissingRate(sampleCount, questionCount, totalAnswers int) float64 {
	expected := sampleCount * questionCount
	if expected == 0 {
		return 0
	}
	rate := 1 - float64(totalAnswers)/float64(expected)
	if rate < 0 {
		return 0
	}
	return rate
}
