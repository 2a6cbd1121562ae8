package dialect

import "strings"

var stackedFraction = strings.NewReplacer("^", "/", "#", "/")

// plainLines removes MTEXT inline formatting and splits the text into
// paragraphs. Unicode escapes are kept for the writer's code page.
func plainLines(s string) []string {
	var lines []string
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '{', '}':
			continue
		case '\\':
		default:
			b.WriteByte(ch)
			continue
		}
		if i+1 >= len(s) {
			b.WriteByte(ch)
			break
		}
		i++
		switch s[i] {
		case 'P':
			lines = append(lines, b.String())
			b.Reset()
		case '~':
			b.WriteByte(' ')
		case '\\', '{', '}':
			b.WriteByte(s[i])
		case 'L', 'l', 'O', 'o', 'K', 'k':
			// Underline, overline and strike-through toggles.
		case 'U', 'M':
			b.WriteByte('\\')
			b.WriteByte(s[i])
		case 'S':
			end := strings.IndexByte(s[i:], ';')
			if end < 0 {
				end = len(s) - i
			}
			b.WriteString(stackedFraction.Replace(s[i+1 : i+end]))
			i += end
		default:
			// Property codes such as \f, \H, \C and \A run to a semicolon.
			if end := strings.IndexByte(s[i:], ';'); end >= 0 {
				i += end
			}
		}
	}
	return append(lines, b.String())
}
