package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDie parses one recipe token such as "(6)", "z(10)", "cf(X)" or "+(4)".
//
// Precondition: token has no surrounding whitespace.
// Postcondition: Returns an unrolled Die or a descriptive error.
func ParseDie(token string) (*Die, error) {
	if token == "" {
		return nil, fmt.Errorf("dice: empty recipe token")
	}
	open := strings.IndexByte(token, '(')
	if open < 0 || !strings.HasSuffix(token, ")") || open+1 >= len(token)-1 {
		return nil, fmt.Errorf("dice: malformed recipe token %q", token)
	}

	d := &Die{Recipe: token}
	for _, r := range token[:open] {
		s, ok := SkillForLetter(r)
		if !ok {
			return nil, fmt.Errorf("dice: unknown skill %q in %q", string(r), token)
		}
		if d.HasSkill(s) {
			return nil, fmt.Errorf("dice: duplicate skill %q in %q", string(r), token)
		}
		d.Skills = append(d.Skills, s)
	}

	size := token[open+1 : len(token)-1]
	if _, ok := SwingRangeFor(size); ok {
		d.SwingType = size
		return d, nil
	}
	sides, err := strconv.Atoi(size)
	if err != nil {
		return nil, fmt.Errorf("dice: invalid die sides in %q: %w", token, err)
	}
	if sides < 1 || sides > 100 {
		return nil, fmt.Errorf("dice: invalid die sides in %q: must be in [1, 100]", token)
	}
	d.Sides = sides
	return d, nil
}

// ParseRecipe parses a whitespace-separated button recipe.
//
// Postcondition: len(result) equals the number of tokens in recipe.
func ParseRecipe(recipe string) ([]*Die, error) {
	tokens := strings.Fields(recipe)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("dice: empty recipe")
	}
	out := make([]*Die, 0, len(tokens))
	for _, tok := range tokens {
		d, err := ParseDie(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// StripSkill returns token with the recipe letter of s removed.
func StripSkill(token string, s Skill) string {
	open := strings.IndexByte(token, '(')
	if open < 0 {
		return token
	}
	prefix := strings.ReplaceAll(token[:open], string(s.Letter()), "")
	return prefix + token[open:]
}
