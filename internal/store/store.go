package store

import (
	"context"
	"time"

	"github.com/cellhub/admin/types"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Store groups the repositories of the development server.
type Store struct {
	Users         *UserRepository
	Events        *Table[types.Event]
	Registrations *RegistrationRepository
	Attendance    *AttendanceRepository
	Cellules      *CelluleRepository
	Documents     *Table[types.Document]
	Announcements *Table[types.Announcement]
}

func New() *Store {
	return &Store{
		Users:         NewUserRepository(),
		Events:        NewTable(func(e types.Event) int { return e.ID }, func(e *types.Event, id int) { e.ID = id }),
		Registrations: NewRegistrationRepository(),
		Attendance:    NewAttendanceRepository(),
		Cellules:      NewCelluleRepository(),
		Documents:     NewTable(func(d types.Document) int { return d.ID }, func(d *types.Document, id int) { d.ID = id }),
		Announcements: NewTable(func(a types.Announcement) int { return a.ID }, func(a *types.Announcement, id int) { a.ID = id }),
	}
}

// SeedOptions configure Seed.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	// MemberPassword is the password of every seeded member account.
	MemberPassword string
	Now            time.Time
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

// Seed adds an administrator, a few members in every moderation state,
// two cellules, two events with registrations, and an announcement.
func (s *Store) Seed(ctx context.Context, opts SeedOptions) error {
	if opts.Cost == 0 {
		opts.Cost = bcrypt.DefaultCost
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.MemberPassword == "" {
		opts.MemberPassword = opts.AdminPassword
	}
	hash := func(password string) (string, error) {
		h, err := bcrypt.GenerateFromPassword([]byte(password), opts.Cost)
		return string(h), errors.Wrap(err, "hash password")
	}

	adminHash, err := hash(opts.AdminPassword)
	if err != nil {
		return err
	}
	if _, err := s.Users.Register(ctx, types.User{
		FirstName: "Admin", LastName: "Cellhub", Email: opts.AdminEmail,
		Status: types.UserAllowed, IsActive: true, RoleID: types.RoleAdmin,
	}, adminHash); err != nil {
		return errors.Wrap(err, "seed admin")
	}

	memberHash, err := hash(opts.MemberPassword)
	if err != nil {
		return err
	}
	members := []types.User{
		{FirstName: "Amina", LastName: "Diallo", Email: "amina@cellhub.local", Status: types.UserAllowed, IsActive: true, RoleID: types.RoleMember, Level: "cs", Specialty: "Networks", Gender: "female"},
		{FirstName: "Yanis", LastName: "Benali", Email: "yanis@cellhub.local", Status: types.UserAllowed, IsActive: true, RoleID: types.RoleMember, Level: "ci", Specialty: "AI", Gender: "male"},
		{FirstName: "Lina", LastName: "Haddad", Email: "lina@cellhub.local", Status: types.UserPending, RoleID: types.RoleMember, Level: "cc"},
		{FirstName: "Omar", LastName: "Said", Email: "omar@cellhub.local", Status: types.UserDenied, RoleID: types.RoleMember, RejectionReason: "incomplete profile"},
	}
	var memberIDs []int
	for _, m := range members {
		created, err := s.Users.Register(ctx, m, memberHash)
		if err != nil {
			return errors.Wrapf(err, "seed %s", m.Email)
		}
		memberIDs = append(memberIDs, created.ID)
	}

	robotics, _ := s.Cellules.Create(ctx, types.Cellule{Name: "Robotics", Abbreviation: "RBT", Domain: "Engineering"})
	_, _ = s.Cellules.Create(ctx, types.Cellule{Name: "Media", Abbreviation: "MED", Domain: "Communication"})
	for _, id := range memberIDs[:2] {
		if err := s.Cellules.AddMember(ctx, robotics.ID, id); err != nil {
			return err
		}
	}

	day := func(offset int) string {
		return opts.Now.AddDate(0, 0, offset).Format(types.DateLayout)
	}
	events := []types.Event{
		{Title: "Robotics kickoff", Description: "Presentation of the year's projects", Type: "conference", Date: day(7), TimeStart: "14:00", TimeEnd: "16:00", Location: "Main hall", Responsable: "Amina", CelluleName: "Robotics"},
		{Title: "Soldering workshop", Description: "Hands-on introduction to soldering", Type: "workshop", Date: day(-3), TimeStart: "10:00", TimeEnd: "12:00", Location: "Lab 2", Responsable: "Yanis", CelluleName: "Robotics"},
	}
	for _, e := range events {
		created, err := s.Events.Create(ctx, e)
		if err != nil {
			return err
		}
		for _, id := range memberIDs[:2] {
			user, _ := s.Users.Get(ctx, id)
			if _, err := s.Registrations.Create(ctx, types.Registration{
				User: &user, UserIDRaw: id, EventID: created.ID,
				RegisteredAt: opts.Now, Status: types.RegistrationRegistered,
			}); err != nil {
				return err
			}
		}
	}

	_, err = s.Announcements.Create(ctx, types.Announcement{
		Title: "Membership drive", Subtitle: "Sign up before the end of the month",
		URL: "https://cellhub.local/join", IsActive: true,
	})
	return err
}
