/*
Package cli provides output helpers shared by the eventlive commands.

Output Formatting:

Command results are printed as text, JSON or Markdown:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	return formatter.FormatTo(cmd.OutOrStdout(), result)

Text output uses the value's Text method when it has one. Markdown output
requires a Markdown method.

Diagnostics:

WriteDiagnostics prints guideline errors and warnings one per line with
their codes, so lint and compile output can be grepped:

	error   GC001 questionMap[0]: Core slot "q_timeline" matches no question
	warning GC002 questionMap[2]: resolved by role "project_type" to question "q3"

Exit Codes:

Commands return *ExitCodeError to choose a process exit code without printing
the error twice.
*/
package cli
