package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kaelo-io/referral_backend/models"
	"github.com/kaelo-io/referral_backend/repositories"
)

// The fakes below mirror the Mongo repositories over in-memory maps. The
// transactor serializes whole transactions with one mutex, matching the
// guarantee the session transactions give the services in production.

type txKey struct{}

type fakeTransactor struct {
	mu sync.Mutex
}

func (t *fakeTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}

type fakeProgramRepo struct {
	mu       sync.Mutex
	programs map[primitive.ObjectID]models.Program
}

func newFakeProgramRepo() *fakeProgramRepo {
	return &fakeProgramRepo{programs: make(map[primitive.ObjectID]models.Program)}
}

func (r *fakeProgramRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if program, ok := r.programs[id]; ok {
		return &program, nil
	}
	return nil, nil
}

func (r *fakeProgramRepo) GetByName(ctx context.Context, name string) (*models.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, program := range r.programs {
		if strings.EqualFold(program.Name, name) {
			p := program
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakeProgramRepo) GetDefault(ctx context.Context) (*models.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, program := range r.programs {
		if program.IsDefault {
			p := program
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakeProgramRepo) Create(ctx context.Context, program *models.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if program.ID.IsZero() {
		program.ID = primitive.NewObjectID()
	}
	program.CreatedAt = now
	program.UpdatedAt = now
	r.programs[program.ID] = *program
	return nil
}

func (r *fakeProgramRepo) Update(ctx context.Context, program *models.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.programs[program.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	program.UpdatedAt = time.Now().UTC()
	r.programs[program.ID] = *program
	return nil
}

func (r *fakeProgramRepo) Search(ctx context.Context, filter models.ProgramSearchFilter) (*models.ProgramSearchResults, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []models.Program
	for _, program := range r.programs {
		if filter.Countries != nil && len(program.CountryIDs) > 0 && !intersects(program.CountryIDs, filter.Countries) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsProgramStatus(filter.Statuses, program.Status) {
			continue
		}
		if filter.ValueContains != "" && !strings.Contains(strings.ToLower(program.Name), strings.ToLower(filter.ValueContains)) {
			continue
		}
		items = append(items, program)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	total := int64(len(items))
	if filter.PageSize > 0 {
		items = pagePrograms(items, filter.PageNumber, filter.PageSize)
	}
	return &models.ProgramSearchResults{TotalCount: total, Items: items}, nil
}

func (r *fakeProgramRepo) ListEnded(ctx context.Context) ([]models.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	var items []models.Program
	for _, program := range r.programs {
		if program.Status != models.ProgramStatusActive && program.Status != models.ProgramStatusUnCompletable {
			continue
		}
		if program.DateEnd == nil || program.DateEnd.After(now) {
			continue
		}
		items = append(items, program)
	}
	return items, nil
}

func (r *fakeProgramRepo) IncrementCompletion(ctx context.Context, id primitive.ObjectID, reward float64) (*models.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	program, ok := r.programs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if program.CompletionLimit != nil && program.CompletionTotal >= *program.CompletionLimit {
		return nil, repositories.ErrLimitReached
	}
	program.CompletionTotal++
	program.ZltoRewardCumulative += reward
	program.UpdatedAt = time.Now().UTC()
	r.programs[id] = program
	return &program, nil
}

type fakeLinkRepo struct {
	mu    sync.Mutex
	links map[primitive.ObjectID]models.Link
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[primitive.ObjectID]models.Link)}
}

func (r *fakeLinkRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if link, ok := r.links[id]; ok {
		return &link, nil
	}
	return nil, nil
}

func (r *fakeLinkRepo) GetByName(ctx context.Context, userID, programID primitive.ObjectID, name string) (*models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, link := range r.links {
		if link.UserID == userID && link.ProgramID == programID && strings.EqualFold(link.Name, name) {
			l := link
			return &l, nil
		}
	}
	return nil, nil
}

func (r *fakeLinkRepo) GetActiveByUserAndProgram(ctx context.Context, userID, programID primitive.ObjectID) (*models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, link := range r.links {
		if link.UserID == userID && link.ProgramID == programID && link.Status == models.LinkStatusActive {
			l := link
			return &l, nil
		}
	}
	return nil, nil
}

func (r *fakeLinkRepo) Create(ctx context.Context, link *models.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if link.ID.IsZero() {
		link.ID = primitive.NewObjectID()
	}
	link.CreatedAt = now
	link.UpdatedAt = now
	r.links[link.ID] = *link
	return nil
}

func (r *fakeLinkRepo) Update(ctx context.Context, link *models.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[link.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	link.UpdatedAt = time.Now().UTC()
	r.links[link.ID] = *link
	return nil
}

func (r *fakeLinkRepo) Search(ctx context.Context, filter models.LinkSearchFilter) (*models.LinkSearchResults, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []models.Link
	for _, link := range r.links {
		if filter.UserID != nil && link.UserID != *filter.UserID {
			continue
		}
		if filter.ProgramID != nil && link.ProgramID != *filter.ProgramID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsLinkStatus(filter.Statuses, link.Status) {
			continue
		}
		items = append(items, link)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return &models.LinkSearchResults{TotalCount: int64(len(items)), Items: items}, nil
}

func (r *fakeLinkRepo) ListByUserAndStatus(ctx context.Context, userID primitive.ObjectID, status models.LinkStatus) ([]models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []models.Link
	for _, link := range r.links {
		if link.UserID == userID && link.Status == status {
			items = append(items, link)
		}
	}
	return items, nil
}

func (r *fakeLinkRepo) ListByProgramAndStatus(ctx context.Context, programID primitive.ObjectID, status models.LinkStatus) ([]models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []models.Link
	for _, link := range r.links {
		if link.ProgramID == programID && link.Status == status {
			items = append(items, link)
		}
	}
	return items, nil
}

func (r *fakeLinkRepo) UpdateStatus(ctx context.Context, ids []primitive.ObjectID, to models.LinkStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, id := range ids {
		link, ok := r.links[id]
		if !ok {
			continue
		}
		link.Status = to
		link.UpdatedAt = time.Now().UTC()
		r.links[id] = link
		count++
	}
	return count, nil
}

func (r *fakeLinkRepo) IncrementCompletion(ctx context.Context, id primitive.ObjectID, limit *int, reward float64) (*models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if limit != nil && link.CompletionTotal >= *limit {
		return nil, repositories.ErrLimitReached
	}
	link.CompletionTotal++
	link.ZltoRewardCumulative += reward
	link.UpdatedAt = time.Now().UTC()
	r.links[id] = link
	return &link, nil
}

func (r *fakeLinkRepo) AggregateByOwner(ctx context.Context, filter models.AnalyticsSearchFilter) ([]models.ReferralAnalyticsUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make(map[primitive.ObjectID]*models.ReferralAnalyticsUser)
	var order []primitive.ObjectID
	for _, link := range r.links {
		if filter.UserID != nil && link.UserID != *filter.UserID {
			continue
		}
		if filter.ProgramID != nil && link.ProgramID != *filter.ProgramID {
			continue
		}
		row, ok := rows[link.UserID]
		if !ok {
			row = &models.ReferralAnalyticsUser{UserID: link.UserID}
			rows[link.UserID] = row
			order = append(order, link.UserID)
		}
		row.LinkCount++
		if link.Status == models.LinkStatusActive {
			row.LinkCountActive++
		}
		row.UsageCountCompleted += link.CompletionTotal
		row.ZltoRewardTotal += link.ZltoRewardCumulative
	}

	result := make([]models.ReferralAnalyticsUser, 0, len(order))
	for _, id := range order {
		result = append(result, *rows[id])
	}
	return result, nil
}

type fakeUsageRepo struct {
	mu     sync.Mutex
	usages map[primitive.ObjectID]models.LinkUsage
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{usages: make(map[primitive.ObjectID]models.LinkUsage)}
}

func (r *fakeUsageRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.LinkUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if usage, ok := r.usages[id]; ok {
		return &usage, nil
	}
	return nil, nil
}

func (r *fakeUsageRepo) GetByUserAndProgram(ctx context.Context, userID, programID primitive.ObjectID) (*models.LinkUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, usage := range r.usages {
		if usage.UserID == userID && usage.ProgramID == programID {
			u := usage
			return &u, nil
		}
	}
	return nil, nil
}

func (r *fakeUsageRepo) Create(ctx context.Context, usage *models.LinkUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if usage.ID.IsZero() {
		usage.ID = primitive.NewObjectID()
	}
	usage.CreatedAt = now
	usage.UpdatedAt = now
	r.usages[usage.ID] = *usage
	return nil
}

func (r *fakeUsageRepo) Update(ctx context.Context, usage *models.LinkUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.usages[usage.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	usage.UpdatedAt = time.Now().UTC()
	r.usages[usage.ID] = *usage
	return nil
}

func (r *fakeUsageRepo) Search(ctx context.Context, filter models.LinkUsageSearchFilter) (*models.LinkUsageSearchResults, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []models.LinkUsage
	for _, usage := range r.usages {
		if filter.UserIDReferee != nil && usage.UserID != *filter.UserIDReferee {
			continue
		}
		if filter.UserIDReferrer != nil && usage.UserIDReferrer != *filter.UserIDReferrer {
			continue
		}
		if filter.ProgramID != nil && usage.ProgramID != *filter.ProgramID {
			continue
		}
		if filter.LinkID != nil && usage.LinkID != *filter.LinkID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsUsageStatus(filter.Statuses, usage.Status) {
			continue
		}
		items = append(items, usage)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].DateClaimed.After(items[j].DateClaimed) })
	return &models.LinkUsageSearchResults{TotalCount: int64(len(items)), Items: items}, nil
}

func (r *fakeUsageRepo) ListByStatus(ctx context.Context, status models.LinkUsageStatus) ([]models.LinkUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []models.LinkUsage
	for _, usage := range r.usages {
		if usage.Status == status {
			items = append(items, usage)
		}
	}
	return items, nil
}

func (r *fakeUsageRepo) ListPendingByLinkIDs(ctx context.Context, linkIDs []primitive.ObjectID) ([]models.LinkUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[primitive.ObjectID]struct{}, len(linkIDs))
	for _, id := range linkIDs {
		ids[id] = struct{}{}
	}
	var items []models.LinkUsage
	for _, usage := range r.usages {
		if _, ok := ids[usage.LinkID]; ok && usage.Status == models.LinkUsageStatusPending {
			items = append(items, usage)
		}
	}
	return items, nil
}

func (r *fakeUsageRepo) AggregateByReferee(ctx context.Context, filter models.AnalyticsSearchFilter) ([]models.ReferralAnalyticsUser, error) {
	return r.aggregateByField(filter, func(u models.LinkUsage) primitive.ObjectID { return u.UserID },
		func(u models.LinkUsage) float64 {
			if u.ZltoRewardReferee != nil {
				return *u.ZltoRewardReferee
			}
			return 0
		})
}

func (r *fakeUsageRepo) AggregateByReferrer(ctx context.Context, filter models.AnalyticsSearchFilter) ([]models.ReferralAnalyticsUser, error) {
	return r.aggregateByField(filter, func(u models.LinkUsage) primitive.ObjectID { return u.UserIDReferrer },
		func(u models.LinkUsage) float64 {
			if u.ZltoRewardReferrer != nil {
				return *u.ZltoRewardReferrer
			}
			return 0
		})
}

func (r *fakeUsageRepo) aggregateByField(filter models.AnalyticsSearchFilter, key func(models.LinkUsage) primitive.ObjectID, reward func(models.LinkUsage) float64) ([]models.ReferralAnalyticsUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make(map[primitive.ObjectID]*models.ReferralAnalyticsUser)
	var order []primitive.ObjectID
	for _, usage := range r.usages {
		userID := key(usage)
		if filter.UserID != nil && userID != *filter.UserID {
			continue
		}
		if filter.ProgramID != nil && usage.ProgramID != *filter.ProgramID {
			continue
		}
		row, ok := rows[userID]
		if !ok {
			row = &models.ReferralAnalyticsUser{UserID: userID}
			rows[userID] = row
			order = append(order, userID)
		}
		switch usage.Status {
		case models.LinkUsageStatusCompleted:
			row.UsageCountCompleted++
			row.ZltoRewardTotal += reward(usage)
		case models.LinkUsageStatusPending:
			row.UsageCountPending++
		case models.LinkUsageStatusExpired:
			row.UsageCountExpired++
		}
	}

	result := make([]models.ReferralAnalyticsUser, 0, len(order))
	for _, id := range order {
		result = append(result, *rows[id])
	}
	return result, nil
}

type fakeBlockRepo struct {
	mu      sync.Mutex
	blocks  map[primitive.ObjectID]models.Block
	updates int
}

func newFakeBlockRepo() *fakeBlockRepo {
	return &fakeBlockRepo{blocks: make(map[primitive.ObjectID]models.Block)}
}

func (r *fakeBlockRepo) GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Block, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, block := range r.blocks {
		if block.UserID == userID && block.Active {
			b := block
			return &b, nil
		}
	}
	return nil, nil
}

func (r *fakeBlockRepo) Create(ctx context.Context, block *models.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if block.ID.IsZero() {
		block.ID = primitive.NewObjectID()
	}
	block.CreatedAt = now
	block.UpdatedAt = now
	r.blocks[block.ID] = *block
	return nil
}

func (r *fakeBlockRepo) Update(ctx context.Context, block *models.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blocks[block.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	r.updates++
	block.UpdatedAt = time.Now().UTC()
	r.blocks[block.ID] = *block
	return nil
}

func (r *fakeBlockRepo) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

func (r *fakeBlockRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blocks)
}

type fakeBlockReasonRepo struct {
	reasons map[primitive.ObjectID]models.BlockReason
}

func newFakeBlockReasonRepo() *fakeBlockReasonRepo {
	return &fakeBlockReasonRepo{reasons: make(map[primitive.ObjectID]models.BlockReason)}
}

func (r *fakeBlockReasonRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.BlockReason, error) {
	if reason, ok := r.reasons[id]; ok {
		return &reason, nil
	}
	return nil, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]models.User)}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		return &user, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Username, username) {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) add(user models.User) models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = user
	return user
}

type fakeCountryRepo struct {
	countries map[primitive.ObjectID]models.Country
}

func newFakeCountryRepo() *fakeCountryRepo {
	return &fakeCountryRepo{countries: make(map[primitive.ObjectID]models.Country)}
}

func (r *fakeCountryRepo) GetByCodeAlpha2(ctx context.Context, code string) (*models.Country, error) {
	for _, country := range r.countries {
		if strings.EqualFold(country.CodeAlpha2, code) {
			c := country
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeCountryRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Country, error) {
	var result []models.Country
	for _, id := range ids {
		if country, ok := r.countries[id]; ok {
			result = append(result, country)
		}
	}
	return result, nil
}

func (r *fakeCountryRepo) add(name, code string) models.Country {
	country := models.Country{ID: primitive.NewObjectID(), Name: name, CodeAlpha2: code}
	r.countries[country.ID] = country
	return country
}

type fakeShortener struct {
	fail bool
}

func (s *fakeShortener) CreateShortLink(ctx context.Context, title, url string) (string, error) {
	if s.fail {
		return "", fmt.Errorf("short link provider unavailable")
	}
	return "https://refer.page/" + title, nil
}

// recordingNotifier captures notification calls for assertions
type recordingNotifier struct {
	mu                sync.Mutex
	blocked           []primitive.ObjectID
	unblocked         []primitive.ObjectID
	limitReachedNames []string
}

func (n *recordingNotifier) UserBlocked(user *models.User, block *models.Block) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blocked = append(n.blocked, user.ID)
	return nil
}

func (n *recordingNotifier) UserUnblocked(user *models.User, block *models.Block) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unblocked = append(n.unblocked, user.ID)
	return nil
}

func (n *recordingNotifier) ProgramLimitReached(program *models.Program) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.limitReachedNames = append(n.limitReachedNames, program.Name)
	return nil
}

func (n *recordingNotifier) limitReachedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.limitReachedNames)
}

// fixture wires the full service graph over the fakes
type fixture struct {
	programRepo *fakeProgramRepo
	linkRepo    *fakeLinkRepo
	usageRepo   *fakeUsageRepo
	blockRepo   *fakeBlockRepo
	reasonRepo  *fakeBlockReasonRepo
	userRepo    *fakeUserRepo
	countryRepo *fakeCountryRepo
	shortener   *fakeShortener
	notifier    *recordingNotifier

	worldwide models.Country

	maintenance *LinkMaintenanceService
	programs    *ProgramService
	links       *LinkService
	blocks      *BlockService
	usages      *LinkUsageService
	analytics   *AnalyticsService
}

func newFixture() *fixture {
	f := &fixture{
		programRepo: newFakeProgramRepo(),
		linkRepo:    newFakeLinkRepo(),
		usageRepo:   newFakeUsageRepo(),
		blockRepo:   newFakeBlockRepo(),
		reasonRepo:  newFakeBlockReasonRepo(),
		userRepo:    newFakeUserRepo(),
		countryRepo: newFakeCountryRepo(),
		shortener:   &fakeShortener{},
		notifier:    &recordingNotifier{},
	}
	f.worldwide = f.countryRepo.add("Worldwide", models.WorldwideCodeAlpha2)

	tx := &fakeTransactor{}
	f.maintenance = NewLinkMaintenanceService(f.linkRepo, f.usageRepo, tx)
	f.programs = NewProgramService(f.programRepo, f.countryRepo, f.userRepo, f.maintenance, tx, f.notifier)
	f.links = NewLinkService(f.linkRepo, f.programs, f.userRepo, f.countryRepo, f.shortener, tx, "https://app.test")
	f.blocks = NewBlockService(f.blockRepo, f.reasonRepo, f.userRepo, f.maintenance, tx, f.notifier)
	f.usages = NewLinkUsageService(f.usageRepo, f.links, f.programs, f.userRepo, f.blocks, NoopProgressLock{}, tx)
	f.analytics = NewAnalyticsService(f.linkRepo, f.usageRepo, f.userRepo)
	return f
}

func (f *fixture) addUser(onboarded bool) models.User {
	user := models.User{
		Username: primitive.NewObjectID().Hex(),
		Email:    primitive.NewObjectID().Hex() + "@test.local",
	}
	if onboarded {
		now := time.Now().UTC().Add(-time.Hour)
		user.DateOnboarded = &now
	}
	return f.userRepo.add(user)
}

func (f *fixture) addReason(name string) models.BlockReason {
	reason := models.BlockReason{ID: primitive.NewObjectID(), Name: name}
	f.reasonRepo.reasons[reason.ID] = reason
	return reason
}

// addProgram seeds an active program with sensible defaults, mutated by fn
func (f *fixture) addProgram(name string, fn func(p *models.Program)) models.Program {
	program := models.Program{
		Name:      name,
		Status:    models.ProgramStatusActive,
		DateStart: time.Now().UTC().Add(-24 * time.Hour),
	}
	if fn != nil {
		fn(&program)
	}
	_ = f.programRepo.Create(context.Background(), &program)
	return program
}

func (f *fixture) addLink(userID, programID primitive.ObjectID, name string, fn func(l *models.Link)) models.Link {
	link := models.Link{
		ProgramID: programID,
		UserID:    userID,
		Name:      name,
		Status:    models.LinkStatusActive,
		URL:       "https://app.test/referral/x/claim",
		ShortURL:  "https://refer.page/" + name,
	}
	if fn != nil {
		fn(&link)
	}
	_ = f.linkRepo.Create(context.Background(), &link)
	return link
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func intersects(a, b []primitive.ObjectID) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func containsProgramStatus(list []models.ProgramStatus, s models.ProgramStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsLinkStatus(list []models.LinkStatus, s models.LinkStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsUsageStatus(list []models.LinkUsageStatus, s models.LinkUsageStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func pagePrograms(items []models.Program, pageNumber, pageSize int) []models.Program {
	if pageNumber < 1 {
		pageNumber = 1
	}
	start := (pageNumber - 1) * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
