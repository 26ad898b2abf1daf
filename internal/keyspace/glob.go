package keyspace

// matchGlob implements the Redis-style glob matching used by KEYS: '*'
// matches any run of characters, '?' matches exactly one, and '[...]'
// matches a character class (with a leading '^' negating it, and '-'
// denoting a range). It is a direct adaptation of the classic
// backtracking matcher shape rather than filepath.Match, because
// filepath.Match treats '/' specially and that is not part of this wire
// protocol's glob dialect.
func matchGlob(pattern, s string) bool {
	return matchGlobBytes([]byte(pattern), []byte(s))
}

func matchGlobBytes(pattern, s []byte) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 1 && pattern[1] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if matchGlobBytes(pattern[1:], s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		case '[':
			if len(s) == 0 {
				return false
			}
			end := indexClassEnd(pattern)
			if end < 0 {
				// Unterminated class: treat '[' as a literal.
				if s[0] != '[' {
					return false
				}
				s = s[1:]
				pattern = pattern[1:]
				continue
			}
			class := pattern[1:end]
			if !matchClass(class, s[0]) {
				return false
			}
			s = s[1:]
			pattern = pattern[end+1:]
		case '\\':
			if len(pattern) >= 2 {
				if len(s) == 0 || s[0] != pattern[1] {
					return false
				}
				s = s[1:]
				pattern = pattern[2:]
				continue
			}
			if len(s) == 0 || s[0] != '\\' {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		default:
			if len(s) == 0 || s[0] != pattern[0] {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		}
	}
	return len(s) == 0
}

func indexClassEnd(pattern []byte) int {
	for i := 1; i < len(pattern); i++ {
		if pattern[i] == ']' {
			return i
		}
	}
	return -1
}

func matchClass(class []byte, c byte) bool {
	negate := false
	if len(class) > 0 && class[0] == '^' {
		negate = true
		class = class[1:]
	}
	matched := false
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			lo, hi := class[i], class[i+2]
			if lo > hi {
				lo, hi = hi, lo
			}
			if c >= lo && c <= hi {
				matched = true
			}
			i += 2
			continue
		}
		if class[i] == c {
			matched = true
		}
	}
	if negate {
		return !matched
	}
	return matched
}
