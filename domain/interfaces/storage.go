package interfaces

import "site_e2e/domain/entities"

// ReportStore представляет интерфейс для хранения отчётов о прогонах
type ReportStore interface {
	// Save сохраняет отчёт и помечает его как последний
	Save(report entities.RunReport) (string, error)

	// Load загружает отчёт по идентификатору
	Load(id string) (entities.RunReport, error)

	// Last загружает последний сохранённый отчёт
	Last() (entities.RunReport, error)
}
