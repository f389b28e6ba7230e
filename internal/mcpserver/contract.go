package mcpserver

// ContentFormatContract describes the note content markup that exports and
// search understand. LLM consumers should follow it when creating or
// updating notes.
const ContentFormatContract = `# Smart Notes Content Format

Note content is stored as opaque marked-up text. The server never rewrites it,
but search, word counts and exports interpret the tags listed here.

## Fields

- **title**: plain text, at most 500 characters. An empty title becomes "Untitled Note".
- **content**: marked-up text using the tags below.
- **labelIds**: ids of existing labels (see ` + "`" + `list_labels` + "`" + `). Duplicates are dropped.

## Accepted tags

| Tag | Markdown export |
|---|---|
| ` + "`" + `<p>...</p>` + "`" + ` | paragraph |
| ` + "`" + `<h1>` + "`" + ` to ` + "`" + `<h6>` + "`" + ` | ` + "`" + `#` + "`" + ` to ` + "`" + `######` + "`" + ` heading |
| ` + "`" + `<strong>` + "`" + ` | ` + "`" + `**bold**` + "`" + ` |
| ` + "`" + `<em>` + "`" + ` | ` + "`" + `*italic*` + "`" + ` |
| ` + "`" + `<u>` + "`" + ` | ` + "`" + `_underline_` + "`" + ` |
| ` + "`" + `<ul>` + "`" + `, ` + "`" + `<ol>` + "`" + `, ` + "`" + `<li>` + "`" + ` | ` + "`" + `- item` + "`" + ` |
| ` + "`" + `<br>` + "`" + ` | line break |

Any other ` + "`" + `<...>` + "`" + ` sequence is dropped from exports, word counts and
advanced search. Do not nest block tags inside ` + "`" + `<p>` + "`" + `.

## Labels

- Names are 1 to 100 characters.
- Colours are ` + "`" + `#rrggbb` + "`" + ` hex strings. The default palette is
  ` + "`" + `#ef4444 #f97316 #eab308 #22c55e #06b6d4 #3b82f6 #8b5cf6 #ec4899` + "`" + `.
- Deleting a label leaves its id on notes; such ids are ignored when resolving names.

## Concurrency

` + "`" + `read_note` + "`" + ` returns an ` + "`" + `etag` + "`" + `. Pass it to ` + "`" + `update_note` + "`" + ` to reject the update
when the note changed in the meantime.

## Example

` + "```" + `html
<h2>Release plan</h2><p>Ship the <strong>beta</strong> on Friday.</p><ul><li>Write notes</li><li>Tag build</li></ul>
` + "```" + `
`
