package console

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/sala-api/internal/dto"
)

// BulkOutcome reports a sequential bulk creation.
type BulkOutcome struct {
	Created []dto.CourseResponse
	Failed  []dto.BulkCourseFailure
	Message string
}

// CourseBoard backs the course list screen.
type CourseBoard struct {
	client   *Client
	store    *Store
	notifier Notifier
}

// NewCourseBoard constructs the board.
func NewCourseBoard(client *Client, store *Store, notifier Notifier) *CourseBoard {
	return &CourseBoard{client: client, store: store, notifier: notifier}
}

// BulkCreate posts one course per grade, waiting for each before sending the
// next. Failures do not stop the loop and nothing already created is rolled back.
func (b *CourseBoard) BulkCreate(ctx context.Context, schoolYearID uint, section string, grades []int) (BulkOutcome, error) {
	outcome := BulkOutcome{}
	for _, grade := range grades {
		if err := ctx.Err(); err != nil {
			outcome.Failed = append(outcome.Failed, dto.BulkCourseFailure{Grade: grade, Reason: err.Error()})
			continue
		}

		var course dto.CourseResponse
		err := b.client.Do(ctx, http.MethodPost, "/api/admin/courses", nil, dto.CourseRequest{
			SchoolYearID: schoolYearID,
			Grade:        dto.FlexInt(grade),
			Section:      section,
		}, &course)
		if err != nil {
			outcome.Failed = append(outcome.Failed, dto.BulkCourseFailure{Grade: grade, Reason: err.Error()})
			continue
		}
		outcome.Created = append(outcome.Created, course)
	}

	outcome.Message = fmt.Sprintf("created %d of %d", len(outcome.Created), len(grades))
	if len(outcome.Created) > 0 {
		b.store.Invalidate("courses")
	}

	if len(outcome.Failed) > 0 {
		b.notifier.Error(outcome.Message)
		return outcome, fmt.Errorf("bulk course creation: %s", outcome.Message)
	}
	b.notifier.Success(outcome.Message)
	return outcome, nil
}
