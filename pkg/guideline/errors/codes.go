package errors

// Code is a stable, machine-readable diagnostic identifier.
type Code string

// Schema and validation codes.
const (
	CodeMalformed         Code = "GP001"
	CodeVersion           Code = "GP002"
	CodeMissingField      Code = "GP003"
	CodeUnknownRole       Code = "GP004"
	CodeInvalidValue      Code = "GP005"
	CodeDuplicateSlot     Code = "GP006"
	CodeThresholdOrder    Code = "GP007"
	CodeWeight            Code = "GP008"
	CodeFingerprintDrift  Code = "GP009"
	CodeUnknownStatus     Code = "GP010"
	CodeEmptyGroup        Code = "GP011"
	CodeUnknownStrategy   Code = "GP012"
	CodeDanglingObjective Code = "GP013"
)

// Lint codes.
const (
	CodeLintNoCoreSlot       Code = "GL001"
	CodeLintUnmappedRole     Code = "GL002"
	CodeLintNoCrosstab       Code = "GL003"
	CodeLintLowMinCell       Code = "GL004"
	CodeLintNoActions        Code = "GL005"
	CodeLintRoleOnly         Code = "GL006"
	CodeLintDuplicatePair    Code = "GL007"
	CodeLintNoDecisionQ      Code = "GL008"
	CodeLintUnscoredOptions  Code = "GL009"
	CodeLintLeadScoringEmpty Code = "GL010"
)

// Compile codes.
const (
	CodeCompileUnresolved     Code = "GC001"
	CodeCompileRoleFallback   Code = "GC002"
	CodeCompileLogicalKey     Code = "GC003"
	CodeCompileDroppedSlot    Code = "GC004"
	CodeCompilePairDropped    Code = "GC005"
	CodeCompileCompDropped    Code = "GC006"
	CodeCompileLeadDisabled   Code = "GC007"
	CodeCompileRoleTie        Code = "GC008"
	CodeCompileUnknownOption  Code = "GC009"
	CodeCompileDefaultPairs   Code = "GC010"
	CodeCompileFingerprintOld Code = "GC011"
)

// Reconcile codes.
const (
	CodeReconcileCountMismatch Code = "GR001"
	CodeReconcileRoleMatch     Code = "GR002"
	CodeReconcileNoMatch       Code = "GR003"
	CodeReconcileOptionPruned  Code = "GR004"
	CodeReconcileOptionRemap   Code = "GR005"
	CodeReconcileLowRatio      Code = "GR006"
)
