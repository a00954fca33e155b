package database

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DatabaseIndex представляет индекс базы данных
type DatabaseIndex struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
	Type    string // btree, gin (только PostgreSQL)
}

// PerformanceIndexes составные индексы под фильтры списка, дашборд и журнал аудита
var PerformanceIndexes = []DatabaseIndex{
	// Индексы для таблицы extintores
	{
		Name:    "idx_extintores_estado_vencimiento",
		Table:   "extintores",
		Columns: []string{"estado", "fecha_vencimiento"},
		Type:    "btree",
	},
	{
		Name:    "idx_extintores_ubicacion_tipo",
		Table:   "extintores",
		Columns: []string{"ubicacion_id", "tipo_id"},
		Type:    "btree",
	},
	{
		Name:    "idx_extintores_busqueda",
		Table:   "extintores",
		Columns: []string{"codigo_interno", "descripcion"},
		Type:    "gin",
	},

	// Индексы для таблицы mantenimientos
	{
		Name:    "idx_mantenimientos_extintor_fecha",
		Table:   "mantenimientos",
		Columns: []string{"extintor_id", "fecha"},
		Type:    "btree",
	},

	// Индексы для таблицы auditoria
	{
		Name:    "idx_auditoria_usuario_fecha",
		Table:   "auditoria",
		Columns: []string{"usuario_id", "created_at"},
		Type:    "btree",
	},
	{
		Name:    "idx_auditoria_entidad",
		Table:   "auditoria",
		Columns: []string{"tipo_entidad", "entidad_id"},
		Type:    "btree",
	},
}

// CreatePerformanceIndexes создает индексы; ошибка одного индекса не прерывает остальные
func CreatePerformanceIndexes(db *gorm.DB, log *logrus.Logger) {
	dialect := db.Dialector.Name()

	for _, index := range PerformanceIndexes {
		stmt, ok := IndexSQL(dialect, index)
		if !ok {
			log.WithField("index", index.Name).Debug("Индекс не поддерживается диалектом, пропускаем")
			continue
		}
		if err := db.Exec(stmt).Error; err != nil {
			log.WithError(err).WithField("index", index.Name).Warn("Не удалось создать индекс")
			continue
		}
		log.WithField("index", index.Name).Debug("Индекс создан")
	}
}

// IndexSQL строит DDL индекса для диалекта; false если индекс для диалекта не применим
func IndexSQL(dialect string, index DatabaseIndex) (string, bool) {
	switch index.Type {
	case "gin":
		// Полнотекстовый поиск есть только в PostgreSQL
		if dialect != "postgres" {
			return "", false
		}
		parts := make([]string, 0, len(index.Columns))
		for _, col := range index.Columns {
			parts = append(parts, fmt.Sprintf("COALESCE(%s, '')", col))
		}
		return fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (to_tsvector('spanish', %s))",
			index.Name, index.Table, strings.Join(parts, " || ' ' || "),
		), true
	default:
		// Обычные B-tree индексы
		uniqueStr := ""
		if index.Unique {
			uniqueStr = "UNIQUE "
		}
		return fmt.Sprintf(
			"CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
			uniqueStr, index.Name, index.Table, strings.Join(index.Columns, ", "),
		), true
	}
}

// DropIndex удаляет индекс
func DropIndex(db *gorm.DB, indexName string) error {
	sql := fmt.Sprintf("DROP INDEX IF EXISTS %s", indexName)
	return db.Exec(sql).Error
}

// OptimizeDatabase обновляет статистику планировщика запросов
func OptimizeDatabase(db *gorm.DB) error {
	if err := db.Exec("ANALYZE").Error; err != nil {
		return fmt.Errorf("failed to analyze database: %w", err)
	}
	return nil
}
