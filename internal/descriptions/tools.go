package descriptions

// Tool descriptions with practical examples and use cases

const (
	SummarizeReportsDescription = `Merge a batch of RoHS/REACH/PFAS lab reports into one summary row.

**When to use:** Several test reports cover the same part or material and you need the single worst-case result per substance.

**Why it's useful:** Finds the result tables in every report, normalizes values like "N.D.", "<2" and "Negative", keeps the most severe result per substance and attributes the row to the report(s) that drove the lead (Pb) result.

**Examples:**
• Whole folder: "Summarize every report in /reports/supplier-a"
• Selected files: "Summarize lead-frame.pdf and solder.pdf"
• Spreadsheet: "Summarize /reports/q3 and save the row to q3-summary.xlsx"

**Output:** One line per column (Pb, Cd, Hg, Cr6+, PBB, PBDE, DEHP, BBP, DBP, DIBP, PFOS, PFAS, F, CL, BR, I, Date, File Name), the files that were skipped with a reason, and the same row as JSON.

**Best practices:** Empty cells mean no valid result was found, never "passed". Check the skipped list: encrypted and corrupt reports contribute nothing.`

	ScanReportDescription = `Show every candidate value extracted from a single lab report.

**When to use:** A summary cell looks wrong and you need to see where it came from.

**Why it's useful:** Lists each substance's accepted candidates with their tier, the report date that was found, which gated families (PFAS) were opened by the front pages, and how each table was treated.

**Examples:**
• Debug a value: "Why is PFAS empty for report-17.pdf?"
• Check a date: "Which issue date was read from coating.pdf?"

**Common workflows:**
1. summarize_reports → spot an odd cell → scan_report on the attributed file
2. scan_report on a new lab's format → adjust the rules file → summarize again`

	ListColumnsDescription = `Describe the summary schema and the active substance rules.

**When to use:** Before summarizing, to learn the column order and which synonyms map to each substance key.

**Why it's useful:** Shows the anchor column used for attribution, the grouped families and the phrases that gate them, so results can be interpreted correctly.`
)
