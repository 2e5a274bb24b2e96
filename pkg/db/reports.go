package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateReport files a moderation report against a playlist with status
// pending. The generated ID is written back to r.
func (db *DB) CreateReport(ctx context.Context, r *Report) error {
	r.Status = ReportPending
	r.CreatedAt = time.Now().UTC()
	res, err := db.reports.InsertOne(ctx, r)
	if err != nil {
		return wrapErr(err)
	}
	r.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ListReports returns all reports, newest first.
func (db *DB) ListReports(ctx context.Context) ([]Report, error) {
	cur, err := db.reports.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, wrapErr(err)
	}
	defer cur.Close(ctx)
	reports := []Report{}
	if err := cur.All(ctx, &reports); err != nil {
		return nil, wrapErr(err)
	}
	return reports, nil
}

// FindReportByID fetches a single report.
func (db *DB) FindReportByID(ctx context.Context, id primitive.ObjectID) (*Report, error) {
	var r Report
	if err := db.reports.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, wrapErr(err)
	}
	return &r, nil
}

// ResolveReport marks the report dismissed or reviewed and records which
// moderator handled it.
func (db *DB) ResolveReport(ctx context.Context, id primitive.ObjectID, status string, reviewerID primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{
		"status":      status,
		"reviewed_by": reviewerID,
		"reviewed_at": time.Now().UTC(),
	}}
	res, err := db.reports.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return wrapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
