package athlete

import "fmt"

// Athlete is one registered squad member. Team is the club name as it
// appears on match sheets; lookups normalize both sides.
type Athlete struct {
	ID          string
	Team        string
	Name        string
	ShirtNumber *int
	Active      bool
}

func (a Athlete) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("athlete id is required")
	}
	if a.Team == "" {
		return fmt.Errorf("athlete team is required")
	}
	if a.Name == "" {
		return fmt.Errorf("athlete name is required")
	}

	return nil
}
