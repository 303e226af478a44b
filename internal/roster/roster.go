package roster

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalid = errors.New("invalid roster")

type Group struct {
	GroupName string   `json:"group_name"`
	ExamDate  string   `json:"exam_date"` // yyyy-mm-dd
	Students  []string `json:"students"`
}

type Program struct {
	ProgramID   string  `json:"program_id"`
	ProgramName string  `json:"program_name"`
	Groups      []Group `json:"groups"`
}

type Roster struct {
	University string    `json:"university"`
	Programs   []Program `json:"programs"`
}

func (r Roster) Program(programID string) (Program, bool) {
	for _, p := range r.Programs {
		if p.ProgramID == programID {
			return p, true
		}
	}
	return Program{}, false
}

func (p Program) Group(groupName string) (Group, bool) {
	for _, g := range p.Groups {
		if g.GroupName == groupName {
			return g, true
		}
	}
	return Group{}, false
}

func (g Group) HasStudent(fullName string) bool {
	for _, s := range g.Students {
		if s == fullName {
			return true
		}
	}
	return false
}

// FindGroup locates a (group, exam_date) pair anywhere in the roster,
// also returning the owning program.
func (r Roster) FindGroup(groupName, examDate string) (Program, Group, bool) {
	for _, p := range r.Programs {
		for _, g := range p.Groups {
			if g.GroupName == groupName && g.ExamDate == examDate {
				return p, g, true
			}
		}
	}
	return Program{}, Group{}, false
}

// Validate rejects structurally broken rosters before they replace the
// current one. Students are deduplicated in place.
func Validate(r *Roster) error {
	seenProg := map[string]bool{}
	for pi := range r.Programs {
		p := &r.Programs[pi]
		if strings.TrimSpace(p.ProgramID) == "" {
			return fmt.Errorf("%w: program %d has empty program_id", ErrInvalid, pi+1)
		}
		if seenProg[p.ProgramID] {
			return fmt.Errorf("%w: duplicate program_id %q", ErrInvalid, p.ProgramID)
		}
		seenProg[p.ProgramID] = true
		if strings.TrimSpace(p.ProgramName) == "" {
			return fmt.Errorf("%w: program %q has empty program_name", ErrInvalid, p.ProgramID)
		}
		seenGroup := map[string]bool{}
		for gi := range p.Groups {
			g := &p.Groups[gi]
			if strings.TrimSpace(g.GroupName) == "" {
				return fmt.Errorf("%w: program %q group %d has empty group_name", ErrInvalid, p.ProgramID, gi+1)
			}
			if seenGroup[g.GroupName] {
				return fmt.Errorf("%w: program %q has duplicate group %q", ErrInvalid, p.ProgramID, g.GroupName)
			}
			seenGroup[g.GroupName] = true
			if strings.TrimSpace(g.ExamDate) == "" {
				return fmt.Errorf("%w: group %q has empty exam_date", ErrInvalid, g.GroupName)
			}
			seen := map[string]bool{}
			dedup := g.Students[:0]
			for _, s := range g.Students {
				s = strings.TrimSpace(s)
				if s == "" || seen[s] {
					continue
				}
				seen[s] = true
				dedup = append(dedup, s)
			}
			g.Students = dedup
		}
	}
	return nil
}
