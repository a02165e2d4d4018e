package store

import "database/sql"

// RowsAffected returns the number of rows touched by result as an int.
func RowsAffected(result sql.Result) (int, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, NewStoreError("cache entry", "count affected rows", "driver did not report affected rows", err)
	}
	return int(n), nil
}
