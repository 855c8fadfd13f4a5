package model

import (
	"fmt"
	"strings"
)

// divisionAliases maps normalized spellings seen in workbooks and databases
// to canonical divisions. The original tracking sheets are inconsistent
// about apostrophes, school level prefixes, and underscores.
var divisionAliases = map[string]Division{
	"ES K-1 REC":       DivisionK1Rec,
	"K-1 REC":          DivisionK1Rec,
	"K1 REC":           DivisionK1Rec,
	"ES 2-3 REC":       DivisionG23Rec,
	"2-3 REC":          DivisionG23Rec,
	"G2-3 REC":         DivisionG23Rec,
	"ES BOYS COMP":     DivisionESBoysComp,
	"ES GIRLS COMP":    DivisionESGirlsComp,
	"MS BOYS JV":       DivisionMSBoysJV,
	"BOYS JV":          DivisionMSBoysJV,
	"MS GIRLS JV":      DivisionMSGirlsJV,
	"GIRLS JV":         DivisionMSGirlsJV,
	"HS BOYS VARSITY":  DivisionHSBoysVarsity,
	"BOYS VARSITY":     DivisionHSBoysVarsity,
	"HS GIRLS VARSITY": DivisionHSGirlsVarsity,
	"GIRLS VARSITY":    DivisionHSGirlsVarsity,
}

// ParseDivision resolves a free-form division label to its canonical value.
func ParseDivision(s string) (Division, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "'", "")
	norm = strings.ReplaceAll(norm, "_", " ")
	norm = strings.Join(strings.Fields(norm), " ")
	if d, ok := divisionAliases[norm]; ok {
		return d, nil
	}
	return "", fmt.Errorf("unknown division %q", s)
}
