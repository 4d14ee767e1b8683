package sqlinline

import (
	"strings"
	"testing"
)

// last_download_date is a real date column, so every read has to cast it to
// text before defaulting with coalesce. Postgres rejects coalesce(date, '')
// as a type mismatch.
func TestLastDownloadDateReadsCastToText(t *testing.T) {
	reads := map[string]string{
		"QUpsertGoogleUser":  QUpsertGoogleUser,
		"QSelectUserByID":    QSelectUserByID,
		"QSelectUserByEmail": QSelectUserByEmail,
		"QUpdateProfile":     QUpdateProfile,
		"QSelectEntitlement": QSelectEntitlement,
	}
	for name, stmt := range reads {
		if !strings.Contains(stmt, "coalesce(last_download_date::text, '')") {
			t.Errorf("%s reads last_download_date without a text cast", name)
		}
		if strings.Contains(stmt, "coalesce(last_download_date, '')") {
			t.Errorf("%s mixes date and text inside coalesce", name)
		}
	}
	if !strings.Contains(QUpdateEntitlement, "nullif($3::text, '')::date") {
		t.Error("QUpdateEntitlement must keep storing last_download_date as a date")
	}
}
