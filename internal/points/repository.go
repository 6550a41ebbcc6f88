package points

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"log/slog"
)

//go:embed sql/list-points.sql
var listPointsSQL string

//go:embed sql/list-points-by-region.sql
var listPointsByRegionSQL string

//go:embed sql/get-point-by-name.sql
var getPointByNameSQL string

//go:embed sql/list-regions.sql
var listRegionsSQL string

var ErrNotFound = errors.New("point of interest not found")

type PointsRepository interface {
	ListPoints(ctx context.Context) ([]PointOfInterest, error)
	ListPointsByRegion(ctx context.Context, region string) ([]PointOfInterest, error)
	GetPointByName(ctx context.Context, name string) (PointOfInterest, error)
	ListRegions(ctx context.Context) ([]RegionCount, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) PointsRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) ListPoints(ctx context.Context) ([]PointOfInterest, error) {
	rows, err := r.db.QueryContext(ctx, listPointsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close points rows", "error", err)
		}
	}()
	return scanPoints(rows)
}

func (r *repositoryImpl) ListPointsByRegion(ctx context.Context, region string) ([]PointOfInterest, error) {
	rows, err := r.db.QueryContext(ctx, listPointsByRegionSQL, region)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close region points rows", "error", err)
		}
	}()
	return scanPoints(rows)
}

func (r *repositoryImpl) GetPointByName(ctx context.Context, name string) (PointOfInterest, error) {
	var p PointOfInterest
	err := r.db.QueryRowContext(ctx, getPointByNameSQL, name).
		Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.Country, &p.Region)
	if errors.Is(err, sql.ErrNoRows) {
		return PointOfInterest{}, ErrNotFound
	}
	if err != nil {
		return PointOfInterest{}, err
	}
	return p, nil
}

func (r *repositoryImpl) ListRegions(ctx context.Context) ([]RegionCount, error) {
	rows, err := r.db.QueryContext(ctx, listRegionsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close regions rows", "error", err)
		}
	}()
	var out []RegionCount
	for rows.Next() {
		var rc RegionCount
		if err := rows.Scan(&rc.Region, &rc.Count); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func scanPoints(rows *sql.Rows) ([]PointOfInterest, error) {
	var out []PointOfInterest
	for rows.Next() {
		var p PointOfInterest
		if err := rows.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.Country, &p.Region); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
