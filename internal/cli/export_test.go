package cmd

var (
	CollectRetryTargets = collectRetryTargets
	BuildRetryReport    = buildRetryReport
	WriteRetryReport    = writeRetryReport
	PrintStatus         = printStatus
)
