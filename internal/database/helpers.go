package database

import "database/sql"

// execRequireRows validates that an ExecContext result affected at least one
// row. Returns err if non-nil, or noRowsErr when rowsAffected is 0.
func execRequireRows(result sql.Result, err, noRowsErr error) error {
	if err != nil {
		return err
	}
	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return affectedErr
	}
	if n == 0 {
		return noRowsErr
	}
	return nil
}
