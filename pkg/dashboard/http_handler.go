package dashboard

import (
	"errors"
	"net/http"

	"github.com/fagongzi/util/format"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/util"
	"github.com/labstack/echo"
)

const (
	succeed = 0
	failed  = 1
)

var (
	errMissingParam = errors.New("missing param")
)

type memberStats struct {
	ID       string `json:"id"`
	Sessions int    `json:"sessions"`
}

type migrateRequest struct {
	To string `json:"to"`
}

type stats struct {
	Members         int              `json:"members"`
	Sessions        int              `json:"sessions"`
	Partitions      int32            `json:"partitions"`
	Version         uint64           `json:"version"`
	ActiveBranches  int              `json:"activeBranches"`
	ResourceManager string           `json:"resourceManager"`
	Memory          util.MemoryStats `json:"memory"`
}

func readInt32Param(name string, ctx echo.Context) (int32, error) {
	param := ctx.Param(name)
	if param == "" {
		return 0, errMissingParam
	}

	value, err := format.ParseStrInt(param)
	if err != nil {
		return 0, err
	}

	return int32(value), nil
}

func readXidParam(ctx echo.Context) (meta.Xid, error) {
	param := ctx.Param("xid")
	if param == "" {
		return meta.Xid{}, errMissingParam
	}

	return meta.ParseXid(param)
}

func jsonResult(ctx echo.Context, value interface{}, err error) error {
	result := &meta.JSONResult{Code: succeed, Value: value}
	if err != nil {
		result.Code = failed
		result.Value = err.Error()
	}

	return ctx.JSON(http.StatusOK, result)
}

func (s *Dashboard) check() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "OK")
	}
}

func (s *Dashboard) members() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		var values []memberStats
		for _, m := range s.cluster.Members() {
			values = append(values, memberStats{
				ID:       m.ID(),
				Sessions: m.Sessions(),
			})
		}

		return jsonResult(ctx, values, nil)
	}
}

func (s *Dashboard) partitions() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		return jsonResult(ctx, s.cluster.Partitions().Snapshot(), nil)
	}
}

func (s *Dashboard) migrate() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		id, err := readInt32Param("id", ctx)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		req := &migrateRequest{}
		err = util.ReadJSONFromBody(ctx.Request().Body, req)
		if err != nil || req.To == "" {
			return ctx.NoContent(http.StatusBadRequest)
		}

		return jsonResult(ctx, nil, s.cluster.Migrate(id, req.To))
	}
}

func (s *Dashboard) lost() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		id, err := readInt32Param("id", ctx)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		backups := 0
		if value := ctx.QueryParam("backups"); value != "" {
			backups, err = format.ParseStrInt(value)
			if err != nil {
				return ctx.NoContent(http.StatusBadRequest)
			}
		}

		if id < 0 || id >= s.cluster.Partitions().Snapshot().Count() {
			return ctx.NoContent(http.StatusBadRequest)
		}

		s.cluster.LosePartition(id, int32(backups))
		return jsonResult(ctx, nil, nil)
	}
}

func (s *Dashboard) branches() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		return jsonResult(ctx, s.cluster.XA().Branches(), nil)
	}
}

func (s *Dashboard) commit() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		xid, err := readXidParam(ctx)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		return jsonResult(ctx, nil, s.cluster.XA().HeuristicCommit(xid))
	}
}

func (s *Dashboard) rollback() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		xid, err := readXidParam(ctx)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		return jsonResult(ctx, nil, s.cluster.XA().HeuristicRollback(xid))
	}
}

func (s *Dashboard) stats() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		table := s.cluster.Partitions().Snapshot()
		value := &stats{
			Members:         len(s.cluster.Members()),
			Partitions:      table.Count(),
			Version:         table.Version,
			ActiveBranches:  s.cluster.XA().Active(),
			ResourceManager: s.cluster.XA().RMID(),
		}
		for _, m := range s.cluster.Members() {
			value.Sessions += m.Sessions()
		}

		mem, err := util.MemStats()
		if err != nil {
			return jsonResult(ctx, nil, err)
		}
		value.Memory = mem
		return jsonResult(ctx, value, nil)
	}
}
