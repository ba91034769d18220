package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"berth/infras/otel"
	"berth/infras/postgres"
	"berth/internal/domains/waitlist/model"
	"berth/shared/constant"
	gDto "berth/shared/dto"
	"berth/shared/logger"
	gRepo "berth/shared/repository"
)

const countsBySlotQuery = `
SELECT
	COUNT(id) FILTER (WHERE status = 'waiting')   AS waiting,
	COUNT(id) FILTER (WHERE status = 'promoted')  AS promoted,
	COUNT(id) FILTER (WHERE status = 'cancelled') AS cancelled,
	COUNT(id)                                     AS total
FROM waitlist_entries
WHERE slot_id = :slot_id`

type Waitlist interface {
	Insert(ctx context.Context, model model.WaitlistEntry) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.WaitlistEntry, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.WaitlistEntry, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	FindWaiting(ctx context.Context, slotID, registrantID, email string) (model.WaitlistEntry, error)
	CountsBySlot(ctx context.Context, slotID string) (model.StatusCounts, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.WaitlistEntry]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Waitlist {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.WaitlistEntry](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// FindWaiting looks up the waiting entry a duplicate join would collide
// with: same slot and same registrant, or same normalized email when no
// registrant id is known.
func (repo *repositoryImpl) FindWaiting(ctx context.Context, slotID, registrantID, email string) (res model.WaitlistEntry, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".waitlist_entry.FindWaiting")
	defer scope.End()
	defer scope.TraceIfError(err)

	identity := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorOr}

	if registrantID != constant.Empty {
		identity.Filters = append(identity.Filters, gDto.Filter{
			Field:    model.FieldRegistrantID,
			Value:    registrantID,
			Operator: gDto.FilterOperatorEq,
		})
	}

	if email != constant.Empty {
		identity.Filters = append(identity.Filters, gDto.Filter{
			Field:    model.FieldAttendeeEmail,
			Value:    email,
			Operator: gDto.FilterOperatorEq,
		})
	}

	if len(identity.Filters) == 0 {
		return res, nil
	}

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: model.FieldSlotID, Value: slotID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldStatus, Value: model.StatusWaiting, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			identity,
		},
	}

	return repo.Get(ctx, filter)
}

func (repo *repositoryImpl) CountsBySlot(ctx context.Context, slotID string) (res model.StatusCounts, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".waitlist_entry.CountsBySlot")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelQueryAttributeKey, countsBySlotQuery)

	prepare, err := repo.db.Read.PrepareNamedContext(ctx, countsBySlotQuery)
	if err != nil {
		logger.ErrorWithStack(err)

		return res, fmt.Errorf("failed to prepare statement (%s): %w", model.EntityName, err)
	}
	defer prepare.Close()

	counts := struct {
		Waiting   int `db:"waiting"`
		Promoted  int `db:"promoted"`
		Cancelled int `db:"cancelled"`
		Total     int `db:"total"`
	}{}

	if err = prepare.GetContext(ctx, &counts, map[string]any{"slot_id": slotID}); err != nil {
		logger.ErrorWithStack(err)

		return res, fmt.Errorf("failed to count waitlist entries (%s): %w", model.EntityName, err)
	}

	res = model.StatusCounts{
		Waiting:   counts.Waiting,
		Promoted:  counts.Promoted,
		Cancelled: counts.Cancelled,
		Total:     counts.Total,
	}

	return res, nil
}
