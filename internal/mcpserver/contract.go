package mcpserver

// DocumentFormatContract describes the on-disk document format that
// LLM consumers should understand when reading or writing lyrics.
const DocumentFormatContract = `# Lyricist Document Format Contract

Lyricist stores two kinds of documents: ` + "`" + `.lyrics` + "`" + ` and plain ` + "`" + `.txt` + "`" + `.

## Header line

A ` + "`" + `.lyrics` + "`" + ` file MAY start with a single-line JSON header that associates
the lyrics with an audio take:

` + "```" + `json
{"lyrics":true,"referencedData":{"dataType":"file","data":"audio/take-1.mp3"}}
` + "```" + `

The header is the first line of the file, followed by a newline and the body.

## Rules

1. **The header is managed by Lyricist.** Tools accept and return the body only.
   Never write the header line yourself.
2. **Only ` + "`" + `.lyrics` + "`" + ` files carry a header.** A ` + "`" + `.txt` + "`" + ` file is always the raw body.
3. **No reference, no header.** A document without an audio association is
   saved without a header line.
4. **Malformed headers are dropped.** A first line that is valid JSON but not a
   header object is removed on open and not written back.
5. **File paths** end with ` + "`" + `.lyrics` + "`" + ` or ` + "`" + `.txt` + "`" + ` and use forward slashes.
6. **Encoding** is UTF-8.

## Audio

- Attach audio via the ` + "`" + `attach_audio` + "`" + ` tool. Files are stored in ` + "`" + `audio/` + "`" + `.
- The reference locator is the path relative to the library root, e.g. ` + "`" + `audio/take-1.mp3` + "`" + `.
- Playable formats: aac, aiff, flac, m4a, mp3, ogg, wav.

## Example

` + "```" + `text
{"lyrics":true,"referencedData":{"dataType":"file","data":"audio/river-demo.wav"}}
Down by the river where the cold lights burn
I keep a candle for the tide to turn
` + "```" + `
`
