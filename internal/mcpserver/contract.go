package mcpserver

// RecordFormatContract describes the canonical record file format that
// LLM consumers should follow when creating records.
const RecordFormatContract = `# Dagaz Record Format Contract

Every record stored in Dagaz MUST follow this structure.

## File naming

` + "```" + `
<ISO-8601 timestamp>-<type>.yaml
2025-01-20T09:30:00-task.yaml
` + "```" + `

The type suffix is one of: task, due-date, focus, prediction, note,
gist, event, metric. Records may also be ` + "`" + `.md` + "`" + ` files: a Markdown
document whose first H1 heading is the event and whose LAST ` + "```" + `yaml` + "```" + `
fenced code block carries the fields below.

## Fields

` + "```" + `yaml
event: What happened or needs to happen   # REQUIRED
date: 2025-01-20                          # creation date (or "timestamp" with a datetime)
due: 1 week                               # OPTIONAL - concrete date or temporal expression
expected_completion: next friday          # OPTIONAL
irrelevant_after: ==due                   # OPTIONAL - record hidden after this point
irrelevant_before: 2025-06-01             # OPTIONAL - record hidden until this point
tags:                                     # OPTIONAL - YAML list
  - project-x
rank_priority: 100                        # OPTIONAL - lower sorts first (default 10000)
completed: false                          # OPTIONAL
` + "```" + `

## Temporal expressions

Date-valued fields accept either a concrete value (` + "`" + `2025-01-20` + "`" + `,
` + "`" + `14:30` + "`" + `, ` + "`" + `2025-01-20 2 pm` + "`" + `) or a relative expression resolved
against the record's creation time:

- ` + "`" + `<n> hours|days|weeks|months|years|business days` + "`" + `
- ` + "`" + `today` + "`" + `, ` + "`" + `tomorrow` + "`" + `, ` + "`" + `yesterday` + "`" + `
- a weekday name (` + "`" + `thursday` + "`" + ` = that day of the current Monday-start week)
- ` + "`" + `next <weekday>` + "`" + ` (the weekday of the following week)
- ` + "`" + `never` + "`" + ` (far-future sentinel)
- ` + "`" + `==due` + "`" + ` (boundary fields only: copy the resolved due date)

## Rules

1. **` + "`" + `event` + "`" + ` is required.** Records without it are rejected.
2. **Tags** are lowercase, kebab-case.
3. **Encoding** is UTF-8 with a trailing newline.
4. File names and field keys MUST be in English; field values may use
   any language.
`
