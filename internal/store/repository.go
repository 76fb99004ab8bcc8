package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/meal-roster/internal/calendar"
	"github.com/klabast/wb-services/meal-roster/internal/roster"
)

// Repository is the record store used by the service.
type Repository struct {
	backend Backend
	log     *zap.Logger
	now     func() time.Time

	mu sync.Mutex
}

// NewRepository wraps backend.
func NewRepository(backend Backend, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{backend: backend, log: log, now: time.Now}
}

// NormalizeName trims a resident name and rejects empty ones.
func NormalizeName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", ErrInvalidResident
	}
	return name, nil
}

func (r *Repository) load(ctx context.Context) (*Document, error) {
	doc, err := r.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return doc.normalize(), nil
}

// update applies fn to the current document and saves it.
func (r *Repository) update(ctx context.Context, fn func(doc *Document) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	doc.UpdatedAt = r.now().UTC()
	if err := r.backend.Save(ctx, doc); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	return nil
}

// Get returns the selections of one resident. Unknown residents have none.
func (r *Repository) Get(ctx context.Context, resident string) (roster.ResidentWeek, error) {
	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if rw, ok := doc.Meals[resident]; ok {
		return rw.Clone(), nil
	}
	return roster.ResidentWeek{}, nil
}

// Put replaces the selections of one resident.
func (r *Repository) Put(ctx context.Context, resident string, rw roster.ResidentWeek) error {
	name, err := NormalizeName(resident)
	if err != nil {
		return err
	}
	for key := range rw {
		if _, err := calendar.ParseDate(key); err != nil {
			return err
		}
	}
	return r.update(ctx, func(doc *Document) error {
		doc.Meals[name] = rw.Clone()
		return nil
	})
}

// GetAll returns a copy of every resident's selections.
func (r *Repository) GetAll(ctx context.Context) (roster.Records, error) {
	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Meals, nil
}

// SetSelection sets one slot of one date for a resident and returns the
// resident's updated selections.
func (r *Repository) SetSelection(ctx context.Context, resident string, date time.Time, slot roster.MealSlot, selected bool) (roster.ResidentWeek, error) {
	name, err := NormalizeName(resident)
	if err != nil {
		return nil, err
	}
	key := calendar.FormatDate(date)

	var out roster.ResidentWeek
	err = r.update(ctx, func(doc *Document) error {
		rw := doc.Meals[name]
		if rw == nil {
			rw = roster.ResidentWeek{}
		}
		rw[key] = rw[key].With(slot, selected)
		doc.Meals[name] = rw
		out = rw.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Debug("selection updated",
		zap.String("resident", name),
		zap.String("date", key),
		zap.String("slot", string(slot)),
		zap.Bool("selected", selected),
	)
	return out, nil
}

// Register adds a resident unless one with the same name exists. It returns
// the stored resident and whether it was created.
func (r *Repository) Register(ctx context.Context, name, pinHash string) (Resident, bool, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return Resident{}, false, err
	}

	var res Resident
	created := false
	err = r.update(ctx, func(doc *Document) error {
		if existing, ok := doc.Residents[name]; ok {
			res = existing
			return nil
		}
		res = Resident{Name: name, PINHash: pinHash, RegisteredAt: r.now().UTC()}
		doc.Residents[name] = res
		created = true
		return nil
	})
	if err != nil {
		return Resident{}, false, err
	}
	if created {
		r.log.Info("resident registered", zap.String("resident", name))
	}
	return res, created, nil
}

// Resident looks up a registered resident.
func (r *Repository) Resident(ctx context.Context, name string) (Resident, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return Resident{}, err
	}
	doc, err := r.load(ctx)
	if err != nil {
		return Resident{}, err
	}
	res, ok := doc.Residents[name]
	if !ok {
		return Resident{}, fmt.Errorf("%w: %s", ErrResidentNotFound, name)
	}
	return res, nil
}

// Residents returns the registered residents ordered by name.
func (r *Repository) Residents(ctx context.Context) ([]Resident, error) {
	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Resident, 0, len(doc.Residents))
	for _, res := range doc.Residents {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// ResidentNames returns the registered resident names in ascending order.
func (r *Repository) ResidentNames(ctx context.Context) ([]string, error) {
	residents, err := r.Residents(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(residents))
	for i, res := range residents {
		names[i] = res.Name
	}
	return names, nil
}
