package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on analysis spans.
const (
	AttrRunID       = "eventlive.run_id"
	AttrCampaignID  = "eventlive.campaign.id"
	AttrFormID      = "eventlive.form.id"
	AttrFingerprint = "eventlive.form.fingerprint"

	AttrPackID       = "eventlive.guideline.pack_id"
	AttrCompileSlots = "eventlive.compile.slots"
	AttrCompileOK    = "eventlive.compile.success"
	AttrCompileWarns = "eventlive.compile.warnings"

	AttrReconciled          = "eventlive.reconcile.reconciled"
	AttrReconcileConfidence = "eventlive.reconcile.confidence"

	AttrSampleCount   = "eventlive.analysis.samples"
	AttrQuestionCount = "eventlive.analysis.questions"
	AttrCrossTabs     = "eventlive.analysis.crosstabs"

	AttrGenerator = "eventlive.generation.generator"
	AttrAttempts  = "eventlive.generation.attempts"

	AttrRepairs = "eventlive.merge.repairs"
	AttrFlags   = "eventlive.merge.flags"

	AttrCacheHit = "eventlive.cache.hit"
	AttrStage    = "eventlive.stage"
)

// SetCampaignAttributes sets campaign identity attributes.
func SetCampaignAttributes(span trace.Span, campaignID, formID, fingerprint string) {
	span.SetAttributes(
		attribute.String(AttrCampaignID, campaignID),
		attribute.String(AttrFormID, formID),
		attribute.String(AttrFingerprint, fingerprint),
	)
}

// SetCompileAttributes sets guideline compile attributes.
func SetCompileAttributes(span trace.Span, packID string, slots int, success bool, warnings int, cacheHit bool) {
	span.SetAttributes(
		attribute.String(AttrPackID, packID),
		attribute.Int(AttrCompileSlots, slots),
		attribute.Bool(AttrCompileOK, success),
		attribute.Int(AttrCompileWarns, warnings),
		attribute.Bool(AttrCacheHit, cacheHit),
	)
}

// SetReconcileAttributes sets reconcile outcome attributes.
func SetReconcileAttributes(span trace.Span, reconciled bool, confidence float64) {
	span.SetAttributes(
		attribute.Bool(AttrReconciled, reconciled),
		attribute.Float64(AttrReconcileConfidence, confidence),
	)
}

// SetGenerationAttributes sets decision generation attributes.
func SetGenerationAttributes(span trace.Span, generator string, attempts int) {
	span.SetAttributes(
		attribute.String(AttrGenerator, generator),
		attribute.Int(AttrAttempts, attempts),
	)
}

// AttributeBuilder collects span attributes fluently.
//
//	attrs := tracing.NewAttributeBuilder().
//	    WithString(tracing.AttrCampaignID, id).
//	    WithInt(tracing.AttrSampleCount, n).
//	    Build()
//	span.SetAttributes(attrs...)
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates an empty builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{attrs: make([]attribute.KeyValue, 0, 8)}
}

// WithString adds a string attribute. Empty values are skipped.
func (b *AttributeBuilder) WithString(key, value string) *AttributeBuilder {
	if value != "" {
		b.attrs = append(b.attrs, attribute.String(key, value))
	}
	return b
}

// WithInt adds an int attribute.
func (b *AttributeBuilder) WithInt(key string, value int) *AttributeBuilder {
	b.attrs = append(b.attrs, attribute.Int(key, value))
	return b
}

// WithFloat64 adds a float64 attribute.
func (b *AttributeBuilder) WithFloat64(key string, value float64) *AttributeBuilder {
	b.attrs = append(b.attrs, attribute.Float64(key, value))
	return b
}

// WithBool adds a bool attribute.
func (b *AttributeBuilder) WithBool(key string, value bool) *AttributeBuilder {
	b.attrs = append(b.attrs, attribute.Bool(key, value))
	return b
}

// Build returns the collected attributes.
func (b *AttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}
