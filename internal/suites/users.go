package suites

import (
	"context"
	"net/http"

	"github.com/transfa/bank-api-harness/internal/app"
	"github.com/transfa/bank-api-harness/internal/domain"
	"github.com/transfa/bank-api-harness/internal/fixture"
	"github.com/transfa/bank-api-harness/internal/generator"
	"github.com/transfa/bank-api-harness/internal/schema"
	"github.com/transfa/bank-api-harness/pkg/bankclient"
)

func validUser(env *app.Env) ([]domain.UserRecord, error) {
	return one(env.Gen.ValidUser()), nil
}

// fixtureUsers reads the JSON fixture and re-validates every record.
func fixtureUsers(env *app.Env) ([]domain.UserRecord, error) {
	raw, err := fixture.LoadRecords[domain.UserRecord](env.Fixtures, UserFixtureFile, UserFixtureKey)
	if err != nil {
		return nil, err
	}
	users := make([]domain.UserRecord, 0, len(raw))
	for _, u := range raw {
		rec, err := domain.NewUserRecord(domain.UserParams{
			Username:    u.UsernameValue(),
			Email:       u.Email,
			Password:    u.Password,
			FullName:    u.FullName,
			PhoneNumber: u.PhoneNumber,
		})
		if err != nil {
			return nil, err
		}
		users = append(users, rec)
	}
	return users, nil
}

func registerUsers(s *app.Suite) {
	app.Register(s, app.Case[domain.UserRecord]{
		Name: "users/create valid user",
		Tags: []string{TagSmoke},
		Data: validUser,
		Run: func(ctx context.Context, sc *app.ScenarioContext, rec domain.UserRecord) error {
			_, err := sc.CreateUser(ctx, rec)
			return err
		},
	})

	app.Register(s, app.Case[generator.Named[domain.UserRecord]]{
		Name:  "users/reject invalid user",
		Tags:  []string{TagNegative},
		Data:  func(env *app.Env) ([]generator.Named[domain.UserRecord], error) { return env.Gen.InvalidUsers(), nil },
		Label: namedLabel[domain.UserRecord],
		Run: func(ctx context.Context, sc *app.ScenarioContext, n generator.Named[domain.UserRecord]) error {
			_, err := sc.Do("create invalid user", func() (*bankclient.Response, error) {
				return sc.Client.CreateUser(ctx, n.Record)
			}, app.ClientError())
			return err
		},
	})

	app.Register(s, app.Case[domain.UserRecord]{
		Name: "users/get by id",
		Tags: []string{TagSmoke},
		Data: validUser,
		Run: func(ctx context.Context, sc *app.ScenarioContext, rec domain.UserRecord) error {
			created, err := sc.CreateUser(ctx, rec)
			if err != nil {
				return err
			}
			var got domain.User
			resp, err := sc.Do("get user by id", func() (*bankclient.Response, error) {
				return sc.Client.GetUserByID(ctx, created.ID)
			}, app.Status(http.StatusOK), sc.Conforms(schema.User), app.DecodeInto(&got))
			if err != nil {
				return err
			}
			if err := app.Equal("user.id", created.ID, got.ID, resp); err != nil {
				return err
			}
			return app.Equal("user.username", created.Username, got.Username, resp)
		},
	})

	app.Register(s, app.Case[struct{}]{
		Name: "users/get missing user",
		Tags: []string{TagNegative},
		Run: func(ctx context.Context, sc *app.ScenarioContext, _ struct{}) error {
			_, err := sc.Do("get missing user", func() (*bankclient.Response, error) {
				return sc.Client.GetUserByID(ctx, missingID)
			}, app.Status(http.StatusNotFound))
			return err
		},
	})

	app.Register(s, app.Case[domain.UserRecord]{
		Name: "users/get all",
		Data: validUser,
		Run: func(ctx context.Context, sc *app.ScenarioContext, rec domain.UserRecord) error {
			created, err := sc.CreateUser(ctx, rec)
			if err != nil {
				return err
			}
			var users []domain.User
			resp, err := sc.Do("get all users", func() (*bankclient.Response, error) {
				return sc.Client.GetAllUsers(ctx)
			}, app.Status(http.StatusOK), sc.Conforms(schema.UserList), app.DecodeInto(&users))
			if err != nil {
				return err
			}
			for _, u := range users {
				if u.ID == created.ID {
					return nil
				}
			}
			return app.True(false, "users", "created user missing from listing", resp)
		},
	})

	app.Register(s, app.Case[domain.UserRecord]{
		Name: "users/get by username",
		Data: validUser,
		Run: func(ctx context.Context, sc *app.ScenarioContext, rec domain.UserRecord) error {
			created, err := sc.CreateUser(ctx, rec)
			if err != nil {
				return err
			}
			var got domain.User
			resp, err := sc.Do("get user by username", func() (*bankclient.Response, error) {
				return sc.Client.GetUserByUsername(ctx, created.Username)
			}, app.Status(http.StatusOK), sc.Conforms(schema.User), app.DecodeInto(&got))
			if err != nil {
				return err
			}
			return app.Equal("user.id", created.ID, got.ID, resp)
		},
	})

	app.Register(s, app.Case[domain.UserRecord]{
		Name: "users/update",
		Data: validUser,
		Run: func(ctx context.Context, sc *app.ScenarioContext, rec domain.UserRecord) error {
			created, err := sc.CreateUser(ctx, rec)
			if err != nil {
				return err
			}
			update := sc.Gen.ValidUser()
			update.Username = domain.Ptr(created.Username)
			var got domain.User
			resp, err := sc.Do("update user", func() (*bankclient.Response, error) {
				return sc.Client.UpdateUser(ctx, created.ID, update)
			}, app.Status(http.StatusOK), sc.Conforms(schema.User), app.DecodeInto(&got))
			if err != nil {
				return err
			}
			if err := app.Equal("user.email", update.Email, got.Email, resp); err != nil {
				return err
			}
			return app.Equal("user.fullName", update.FullName, got.FullName, resp)
		},
	})

	app.Register(s, app.Case[domain.UserRecord]{
		Name: "users/delete",
		Data: validUser,
		Run: func(ctx context.Context, sc *app.ScenarioContext, rec domain.UserRecord) error {
			created, err := sc.CreateUser(ctx, rec)
			if err != nil {
				return err
			}
			if _, err := sc.Do("delete user", func() (*bankclient.Response, error) {
				return sc.Client.DeleteUser(ctx, created.ID)
			}, app.Status(http.StatusNoContent)); err != nil {
				return err
			}
			for _, step := range []string{"get deleted user", "get deleted user again"} {
				if _, err := sc.Do(step, func() (*bankclient.Response, error) {
					return sc.Client.GetUserByID(ctx, created.ID)
				}, app.Status(http.StatusNotFound)); err != nil {
					return err
				}
			}
			return nil
		},
	})

	app.Register(s, app.Case[domain.UserRecord]{
		Name: "users/create from json fixture",
		Tags: []string{TagFixture},
		Data: fixtureUsers,
		Label: func(_ int, rec domain.UserRecord) string {
			return rec.UsernameValue()
		},
		Run: func(ctx context.Context, sc *app.ScenarioContext, rec domain.UserRecord) error {
			_, err := sc.CreateUser(ctx, rec)
			return err
		},
	})
}
