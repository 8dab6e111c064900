package reward_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackyeh168/loyalty_rewards/src/internal/application/pipeline"
	apppoints "github.com/jackyeh168/loyalty_rewards/src/internal/application/points"
	appreward "github.com/jackyeh168/loyalty_rewards/src/internal/application/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/points"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/persistencetest"
	pointsstore "github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/points"
	rewardstore "github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/reward"
	userstore "github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===========================
// 測試環境
// ===========================

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, event shared.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return b.err
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

type rewardEnv struct {
	purchase    *apppoints.ProcessPurchaseUseCase
	redeem      *apppoints.RedeemPointsUseCase
	coordinator *appreward.UnlockCoordinator
	definitions *appreward.DefinitionService
	progress    *appreward.ProgressUseCase
	summary     *appreward.SummaryUseCase
	handler     *appreward.EvaluatePurchaseHandler
	unlockRepo  reward.UnlockRepository
	eventLog    reward.EventLog
	userRepo    user.UserRepository
	broadcaster *recordingBroadcaster
}

func setupRewardEnv(t *testing.T) *rewardEnv {
	t.Helper()
	db := persistencetest.NewTestDB(t,
		&userstore.UserGORM{},
		&pointsstore.PointBalanceGORM{},
		&pointsstore.TransactionGORM{},
		&rewardstore.DefinitionGORM{},
		&rewardstore.UnlockGORM{},
		&rewardstore.EventGORM{},
	)
	txManager := persistence.NewGORMTransactionManager(db)

	userRepo := userstore.NewUserRepository(db)
	txRepo := pointsstore.NewTransactionRepository(db)
	ledger := apppoints.NewLedger(pointsstore.NewBalanceRepository(db), txManager)
	definitionRepo := rewardstore.NewDefinitionRepository(db)
	unlockRepo := rewardstore.NewUnlockRepository(db)
	activity := rewardstore.NewActivityReader(db)
	eventLog := rewardstore.NewEventLog(db)
	broadcaster := &recordingBroadcaster{}

	coordinator := appreward.NewUnlockCoordinator(definitionRepo, unlockRepo, activity, eventLog, txManager, broadcaster, nil)
	return &rewardEnv{
		purchase:    apppoints.NewProcessPurchaseUseCase(txRepo, userRepo, ledger, points.DefaultRate(), nil, txManager, nil),
		redeem:      apppoints.NewRedeemPointsUseCase(txRepo, ledger, txManager, nil),
		coordinator: coordinator,
		definitions: appreward.NewDefinitionService(definitionRepo, txManager, nil),
		progress:    appreward.NewProgressUseCase(definitionRepo, unlockRepo, activity),
		summary:     appreward.NewSummaryUseCase(ledger, definitionRepo, unlockRepo, txRepo, 5),
		handler:     appreward.NewEvaluatePurchaseHandler(txRepo, userRepo, coordinator, txManager, nil),
		unlockRepo:  unlockRepo,
		eventLog:    eventLog,
		userRepo:    userRepo,
		broadcaster: broadcaster,
	}
}

// seedCatalogue 建立預設成就與徽章
func (e *rewardEnv) seedCatalogue(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	achievements := []appreward.CreateAchievementCommand{
		{Name: "First Purchase", Icon: "trophy", Criteria: map[string]interface{}{"transaction_count": 1}},
		{Name: "Loyal Customer", Icon: "star", Criteria: map[string]interface{}{"points_minimum": 1000}},
		{Name: "Big Spender", Icon: "diamond", Criteria: map[string]interface{}{"single_transaction_amount": 500}},
	}
	for _, cmd := range achievements {
		_, err := e.definitions.CreateAchievement(ctx, cmd)
		require.NoError(t, err)
	}
	badges := []appreward.CreateBadgeCommand{
		{Name: "Bronze Member", Icon: "bronze-medal", Tier: 1, Requirements: map[string]interface{}{"points_minimum": 100}},
		{Name: "Silver Member", Icon: "silver-medal", Tier: 2, Requirements: map[string]interface{}{"points_minimum": 2500}},
		{Name: "Gold Member", Icon: "gold-medal", Tier: 3, Requirements: map[string]interface{}{"points_minimum": 10000}},
	}
	for _, cmd := range badges {
		_, err := e.definitions.CreateBadge(ctx, cmd)
		require.NoError(t, err)
	}
}

func (e *rewardEnv) registerUser(t *testing.T, email string) user.UserID {
	t.Helper()
	addr, err := user.NewEmail(email)
	require.NoError(t, err)
	u, err := user.NewUser("Member", addr)
	require.NoError(t, err)
	require.NoError(t, e.userRepo.Save(nil, u))
	return u.UserID()
}

func (e *rewardEnv) buy(t *testing.T, userID user.UserID, amount string) *apppoints.TransactionResult {
	t.Helper()
	result, err := e.purchase.Execute(context.Background(), apppoints.ProcessPurchaseCommand{
		UserID: userID.String(),
		Amount: decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return result
}

func pipelineItem(userID user.UserID, txID points.TransactionID) pipeline.WorkItem {
	return pipeline.WorkItem{UserID: userID, TransactionID: txID}
}

// assertAchievementsFirst 成就事件必須全部排在徽章事件之前
func assertAchievementsFirst(t *testing.T, events []reward.UnlockEvent) {
	t.Helper()
	seenBadge := false
	for _, e := range events {
		if e.Kind() == reward.KindBadge {
			seenBadge = true
			continue
		}
		assert.False(t, seenBadge, "achievement event after a badge event")
	}
}

func eventNames(events []reward.UnlockEvent) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		switch ev := e.(type) {
		case *reward.AchievementUnlockedEvent:
			names = append(names, ev.Name())
		case *reward.BadgeUnlockedEvent:
			names = append(names, ev.Name())
		}
	}
	return names
}

// ===========================
// UnlockAll
// ===========================

func TestUnlockAll_FirstPurchase_UnlocksAchievementsThenBadges(t *testing.T) {
	// Arrange
	env := setupRewardEnv(t)
	env.seedCatalogue(t)
	userID := env.registerUser(t, "first@example.com")
	env.buy(t, userID, "100.00") // 1000 點

	// Act
	events, err := env.coordinator.UnlockAll(context.Background(), userID)

	// Assert
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"First Purchase", "Loyal Customer", "Bronze Member"}, eventNames(events))
	assertAchievementsFirst(t, events)
	assert.Equal(t, 3, env.broadcaster.count())

	count, err := env.eventLog.CountByUser(nil, userID, reward.EventTypeAchievementUnlocked)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestUnlockAll_SecondCall_IsIdempotent(t *testing.T) {
	// Arrange
	env := setupRewardEnv(t)
	env.seedCatalogue(t)
	userID := env.registerUser(t, "idem@example.com")
	env.buy(t, userID, "10.00")
	first, err := env.coordinator.UnlockAll(context.Background(), userID)
	require.NoError(t, err)

	// Act
	second, err := env.coordinator.UnlockAll(context.Background(), userID)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, first)
	assert.Empty(t, second)
	assert.Equal(t, len(first), env.broadcaster.count())
}

func TestUnlockAll_ReachingGold_UnlocksEverySatisfiedTier(t *testing.T) {
	// Arrange
	env := setupRewardEnv(t)
	env.seedCatalogue(t)
	userID := env.registerUser(t, "gold@example.com")
	env.buy(t, userID, "1000.00") // 10000 點

	// Act
	events, err := env.coordinator.UnlockAll(context.Background(), userID)

	// Assert
	require.NoError(t, err)
	names := eventNames(events)
	require.Len(t, names, 6)
	assert.ElementsMatch(t, []string{"First Purchase", "Loyal Customer", "Big Spender"}, names[:3])
	assert.Equal(t, []string{"Bronze Member", "Silver Member", "Gold Member"}, names[3:])
}

func TestUnlockAll_Concurrent_SingleRecordAndEvent(t *testing.T) {
	// Arrange
	env := setupRewardEnv(t)
	env.seedCatalogue(t)
	userID := env.registerUser(t, "race@example.com")
	env.buy(t, userID, "1.00") // 10 點，只滿足 First Purchase

	// Act
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.coordinator.UnlockAll(context.Background(), userID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Assert
	records, err := env.unlockRepo.ListByUser(nil, userID)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	count, err := env.eventLog.CountByUser(nil, userID, reward.EventTypeAchievementUnlocked)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, env.broadcaster.count())
}

func TestUnlockAll_BroadcastFailure_KeepsUnlock(t *testing.T) {
	// Arrange
	env := setupRewardEnv(t)
	env.seedCatalogue(t)
	env.broadcaster.err = errors.New("websocket hub offline")
	userID := env.registerUser(t, "offline@example.com")
	env.buy(t, userID, "1.00")

	// Act
	events, err := env.coordinator.UnlockAll(context.Background(), userID)

	// Assert
	require.NoError(t, err)
	require.Len(t, events, 1)
	exists, err := env.unlockRepo.Exists(nil, userID, events[0].DefinitionID())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUnlockAll_DeactivatedDefinition_NotEvaluated(t *testing.T) {
	// Arrange
	env := setupRewardEnv(t)
	ctx := context.Background()
	created, err := env.definitions.CreateAchievement(ctx, appreward.CreateAchievementCommand{
		Name:     "First Purchase",
		Criteria: map[string]interface{}{"transaction_count": 1},
	})
	require.NoError(t, err)
	_, err = env.definitions.SetActive(ctx, created.DefinitionID, false)
	require.NoError(t, err)
	userID := env.registerUser(t, "inactive@example.com")
	env.buy(t, userID, "5.00")

	// Act
	events, err := env.coordinator.UnlockAll(ctx, userID)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUnlockAll_RedemptionsDoNotReduceEarnedPoints(t *testing.T) {
	// Arrange
	env := setupRewardEnv(t)
	env.seedCatalogue(t)
	userID := env.registerUser(t, "spender@example.com")
	env.buy(t, userID, "100.00")
	_, err := env.redeem.Execute(context.Background(), apppoints.RedeemPointsCommand{UserID: userID.String(), Points: 900})
	require.NoError(t, err)

	// Act
	events, err := env.coordinator.UnlockAll(context.Background(), userID)

	// Assert
	require.NoError(t, err)
	assert.Contains(t, eventNames(events), "Loyal Customer")
}

// ===========================
// Handler
// ===========================

func TestEvaluatePurchaseHandler_UnlocksForCommittedPurchase(t *testing.T) {
	env := setupRewardEnv(t)
	env.seedCatalogue(t)
	userID := env.registerUser(t, "worker@example.com")
	purchase := env.buy(t, userID, "2.00")
	txID, err := points.TransactionIDFromString(purchase.TransactionID)
	require.NoError(t, err)

	err = env.handler.Handle(context.Background(), pipelineItem(userID, txID))

	require.NoError(t, err)
	records, err := env.unlockRepo.ListByUser(nil, userID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestEvaluatePurchaseHandler_CanceledAttempt_ReadsAbortedAndRetryable(t *testing.T) {
	// Arrange
	env := setupRewardEnv(t)
	env.seedCatalogue(t)
	userID := env.registerUser(t, "canceled@example.com")
	purchase := env.buy(t, userID, "2.00")
	txID, err := points.TransactionIDFromString(purchase.TransactionID)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	err = env.handler.Handle(ctx, pipelineItem(userID, txID))

	// Assert：取消的嘗試不讀取也不解鎖，且可重試
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, pipeline.IsDrop(err))
	records, err := env.unlockRepo.ListByUser(nil, userID)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, env.handler.Handle(context.Background(), pipelineItem(userID, txID)))
	records, err = env.unlockRepo.ListByUser(nil, userID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestUnlockAll_CanceledContext_NoUnlocks(t *testing.T) {
	env := setupRewardEnv(t)
	env.seedCatalogue(t)
	userID := env.registerUser(t, "canceled-unlock@example.com")
	env.buy(t, userID, "2.00")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events, err := env.coordinator.UnlockAll(ctx, userID)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, events)
	records, err := env.unlockRepo.ListByUser(nil, userID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

// ===========================
// Progress / Summary / Definitions
// ===========================

func TestProgress_ReflectsActivity(t *testing.T) {
	// Arrange
	env := setupRewardEnv(t)
	env.seedCatalogue(t)
	userID := env.registerUser(t, "progress@example.com")
	env.buy(t, userID, "25.00") // 250 點
	_, err := env.coordinator.UnlockAll(context.Background(), userID)
	require.NoError(t, err)

	// Act
	results, err := env.progress.ProgressAll(context.Background(), userID)

	// Assert
	require.NoError(t, err)
	byName := make(map[string]appreward.ProgressResult)
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.Equal(t, 100, byName["First Purchase"].Percent)
	assert.True(t, byName["First Purchase"].Unlocked)
	assert.Equal(t, 25, byName["Loyal Customer"].Percent)
	assert.Equal(t, 5, byName["Big Spender"].Percent)
	assert.Equal(t, 100, byName["Bronze Member"].Percent)
	assert.Equal(t, 10, byName["Silver Member"].Percent)

	single, err := env.progress.Progress(context.Background(), userID, mustDefinitionID(t, byName["Gold Member"].DefinitionID))
	require.NoError(t, err)
	assert.Equal(t, 3, single)
}

func TestProgress_UnknownDefinition_ReturnsNotFound(t *testing.T) {
	env := setupRewardEnv(t)

	_, err := env.progress.Progress(context.Background(), user.NewUserID(), reward.NewDefinitionID())

	assert.ErrorIs(t, err, reward.ErrDefinitionNotFound)
}

func TestSummary_ReportsCurrentBadgeAndRecentTransactions(t *testing.T) {
	// Arrange
	env := setupRewardEnv(t)
	env.seedCatalogue(t)
	userID := env.registerUser(t, "summary@example.com")
	env.buy(t, userID, "300.00") // 3000 點 → Bronze + Silver
	_, err := env.coordinator.UnlockAll(context.Background(), userID)
	require.NoError(t, err)

	// Act
	summary, err := env.summary.Execute(context.Background(), userID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3000, summary.Available)
	assert.Len(t, summary.Badges, 2)
	require.NotNil(t, summary.CurrentBadge)
	assert.Equal(t, "Silver Member", summary.CurrentBadge.Name)
	assert.Equal(t, 2, summary.CurrentBadge.Tier)
	assert.Len(t, summary.Achievements, 2)
	require.Len(t, summary.RecentTransactions, 1)
	assert.Equal(t, "300.00", summary.RecentTransactions[0].Amount)
}

func TestSummary_NewUser_ZeroBalanceNoBadge(t *testing.T) {
	env := setupRewardEnv(t)

	summary, err := env.summary.Execute(context.Background(), user.NewUserID())

	require.NoError(t, err)
	assert.Zero(t, summary.Available)
	assert.Nil(t, summary.CurrentBadge)
	assert.Empty(t, summary.RecentTransactions)
}

func TestDefinitionService_RejectsInvalidDefinitions(t *testing.T) {
	env := setupRewardEnv(t)
	ctx := context.Background()

	_, err := env.definitions.CreateAchievement(ctx, appreward.CreateAchievementCommand{
		Name:     "Badge Only",
		Criteria: map[string]interface{}{"purchases_minimum": 3},
	})
	assert.ErrorIs(t, err, reward.ErrInvalidCriteria)

	_, err = env.definitions.CreateAchievement(ctx, appreward.CreateAchievementCommand{
		Name:     "Mystery",
		Criteria: map[string]interface{}{"moon_phase": 1},
	})
	assert.ErrorIs(t, err, reward.ErrInvalidCriteria)

	_, err = env.definitions.CreateBadge(ctx, appreward.CreateBadgeCommand{Name: "Tierless", Tier: 0})
	assert.ErrorIs(t, err, reward.ErrInvalidDefinition)

	_, err = env.definitions.CreateBadge(ctx, appreward.CreateBadgeCommand{Name: "Entry", Tier: 1})
	require.NoError(t, err)
	_, err = env.definitions.CreateBadge(ctx, appreward.CreateBadgeCommand{Name: "Entry", Tier: 2})
	assert.ErrorIs(t, err, reward.ErrDefinitionAlreadyExists)
}

func TestDefinitionService_List(t *testing.T) {
	env := setupRewardEnv(t)
	env.seedCatalogue(t)

	badges, err := env.definitions.List(context.Background(), reward.KindBadge, true)

	require.NoError(t, err)
	require.Len(t, badges, 3)
	assert.Equal(t, "Bronze Member", badges[0].Name)
	assert.Equal(t, 3, badges[2].Tier)
}

func mustDefinitionID(t *testing.T, s string) reward.DefinitionID {
	t.Helper()
	id, err := reward.DefinitionIDFromString(s)
	require.NoError(t, err)
	return id
}
