// Package upstreamsim simulates the external scoring and roster service
// for local runs: a generated roster, division definitions, scorecards
// that progress hole by hole, and a WebSocket feed of change events.
package upstreamsim

import (
	"math"
	"sort"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/okian/fairway/internal/domain/model"
)

// Bulk assignment error messages.
const (
	errParticipantNotFound = "participant not found"
	errDivisionNotFound    = "division not found"
	errDivisionFull        = "division is full"
)

var defaultPar = []int{4, 4, 3, 5, 4, 4, 3, 4, 5, 4, 4, 3, 5, 4, 4, 3, 4, 5}

// Tournament is the simulated state of one event.
type Tournament struct {
	mu sync.Mutex

	id           string
	holes        int
	faker        *gofakeit.Faker
	participants []model.Participant
	divisions    []model.DivisionDefinition
	cards        map[string]*model.ScorecardSnapshot
}

// NewTournament generates players participants. The same seed yields the
// same roster.
func NewTournament(id string, players, holes int, seed uint64) *Tournament {
	if holes < 1 || holes > len(defaultPar) {
		holes = len(defaultPar)
	}
	t := &Tournament{
		id:    id,
		holes: holes,
		faker: gofakeit.New(seed),
		cards: make(map[string]*model.ScorecardSnapshot, players),
	}
	t.divisions = defaultDivisions(players)
	for i := 0; i < players; i++ {
		p := t.newParticipant()
		t.participants = append(t.participants, p)
		t.cards[p.ID] = &model.ScorecardSnapshot{ParticipantID: p.ID, Name: p.Name, Country: p.Country}
	}
	return t
}

func (t *Tournament) newParticipant() model.Participant {
	f := t.faker
	sex := model.SexMale
	if f.Gender() == "female" {
		sex = model.SexFemale
	}
	name := f.FirstName() + " " + f.LastName()
	if f.Number(1, 10) == 1 {
		name += " Sr."
	}
	hcp := math.Round(f.Float64Range(0, model.MaxHandicap)*10) / 10
	return model.Participant{
		ID:       f.UUID(),
		Name:     name,
		Handicap: &hcp,
		Sex:      sex,
		Country:  f.CountryAbr(),
	}
}

func bound(v float64) *float64 { return &v }

func defaultDivisions(players int) []model.DivisionDefinition {
	capA := players/4 + 1
	open := "open"
	return []model.DivisionDefinition{
		{ID: "senior", Name: "Senior", HandicapMin: bound(0), HandicapMax: bound(36), Type: model.DivisionSenior},
		{ID: "ladies", Name: "Ladies", HandicapMin: bound(0), HandicapMax: bound(36), Type: model.DivisionWomen},
		{ID: "men-a", Name: "Men A", HandicapMin: bound(0), HandicapMax: bound(12), MaxParticipants: &capA, Type: model.DivisionMen},
		{ID: "men-b", Name: "Men B", HandicapMin: bound(12.1), HandicapMax: bound(24), Type: model.DivisionMen},
		{ID: "open", Name: "Open", Type: model.DivisionMixed},
		{ID: "open-low", Name: "Open Low", HandicapMin: bound(0), HandicapMax: bound(18), ParentID: &open},
		{ID: "open-high", Name: "Open High", HandicapMin: bound(18.1), HandicapMax: bound(54), ParentID: &open},
	}
}

// ID returns the tournament ID.
func (t *Tournament) ID() string { return t.id }

// Participants returns a copy of the roster.
func (t *Tournament) Participants() []model.Participant {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.Participant(nil), t.participants...)
}

// Divisions returns the division definitions with their current
// occupancy.
func (t *Tournament) Divisions() []model.DivisionDefinition {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.DivisionDefinition, len(t.divisions))
	for i, d := range t.divisions {
		n := t.occupancy(d)
		d.ParticipantCount = &n
		out[i] = d
	}
	return out
}

// Scorecards returns every scorecard ordered by participant ID.
func (t *Tournament) Scorecards() []model.ScorecardSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.ScorecardSnapshot, 0, len(t.cards))
	for _, c := range t.cards {
		cp := *c
		cp.Holes = append([]int(nil), c.Holes...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out
}

// Advance plays one hole for a random participant still on the course.
// It returns false once every round is complete.
func (t *Tournament) Advance() (model.Notification, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	playing := make([]*model.ScorecardSnapshot, 0, len(t.cards))
	for _, p := range t.participants {
		if c := t.cards[p.ID]; c.HolesCompleted < t.holes {
			playing = append(playing, c)
		}
	}
	if len(playing) == 0 {
		return model.Notification{}, false
	}

	c := playing[t.faker.Number(0, len(playing)-1)]
	strokes := defaultPar[c.HolesCompleted] + t.faker.Number(-1, 2)
	c.Holes = append(c.Holes, strokes)
	c.HolesCompleted++
	c.Gross += strokes

	hcp := t.handicap(c.ParticipantID)
	net := math.Round((float64(c.Gross)-hcp*float64(c.HolesCompleted)/float64(t.holes))*10) / 10
	c.Net = &net

	kind := model.KindScoreUpdated
	if c.HolesCompleted == t.holes {
		kind = model.KindLeaderboardUpdate
	}
	return model.Notification{ID: uuid.NewString(), Kind: kind}, true
}

// Roll returns a random number in [0, 1).
func (t *Tournament) Roll() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.faker.Float64Range(0, 1)
}

// Assign applies a bulk assignment. Items are processed in order and each
// one sees the occupancy left by the previous ones.
func (t *Tournament) Assign(items []model.BulkAssignment) model.BulkResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	res := model.BulkResult{Errors: []model.BulkItemError{}}
	for _, item := range items {
		i := t.indexOf(item.ParticipantID)
		if i < 0 {
			res.Errors = append(res.Errors, model.BulkItemError{ParticipantID: item.ParticipantID, Error: errParticipantNotFound})
			continue
		}
		p := &t.participants[i]

		if item.DivisionID == nil {
			if !p.HasDivision() {
				res.Skipped++
				continue
			}
			p.DivisionID, p.SubDivisionID = nil, nil
			res.Assigned++
			continue
		}

		d, ok := t.division(*item.DivisionID)
		if !ok {
			res.Errors = append(res.Errors, model.BulkItemError{ParticipantID: item.ParticipantID, Error: errDivisionNotFound})
			continue
		}
		if t.member(*p, d) {
			res.Skipped++
			continue
		}
		if limit, capped := d.Limit(); capped && t.occupancy(d) >= limit {
			res.Errors = append(res.Errors, model.BulkItemError{ParticipantID: item.ParticipantID, Error: errDivisionFull})
			continue
		}

		id := d.ID
		if d.ParentID != nil {
			parent := *d.ParentID
			p.DivisionID, p.SubDivisionID = &parent, &id
		} else {
			p.DivisionID, p.SubDivisionID = &id, nil
		}
		res.Assigned++
	}
	return res
}

func (t *Tournament) indexOf(participantID string) int {
	for i, p := range t.participants {
		if p.ID == participantID {
			return i
		}
	}
	return -1
}

func (t *Tournament) division(id string) (model.DivisionDefinition, bool) {
	for _, d := range t.divisions {
		if d.ID == id {
			return d, true
		}
	}
	return model.DivisionDefinition{}, false
}

func (t *Tournament) member(p model.Participant, d model.DivisionDefinition) bool {
	if d.ParentID != nil {
		return p.SubDivisionID != nil && *p.SubDivisionID == d.ID
	}
	return p.DivisionID != nil && *p.DivisionID == d.ID
}

func (t *Tournament) occupancy(d model.DivisionDefinition) int {
	n := 0
	for _, p := range t.participants {
		if t.member(p, d) {
			n++
		}
	}
	return n
}

func (t *Tournament) handicap(participantID string) float64 {
	if i := t.indexOf(participantID); i >= 0 {
		return t.participants[i].HandicapOrZero()
	}
	return 0
}
