package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbkberrors "github.com/singabi/dbkb/internal/errors"
)

const sampleDDL = "CREATE TABLE `sgo_orders` (\n" +
	"  `order_id` bigint(20) NOT NULL AUTO_INCREMENT COMMENT 'order primary key',\n" +
	"  `user_id` bigint(20) NOT NULL COMMENT 'buyer id',\n" +
	"  `status` tinyint(4) DEFAULT '0',\n" +
	"  PRIMARY KEY (`order_id`),\n" +
	"  KEY `idx_user_id` (`user_id`),\n" +
	"  CONSTRAINT `fk_orders_user` FOREIGN KEY (`user_id`) REFERENCES `sgo_users` (`user_id`)\n" +
	") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COMMENT='order main table';\n" +
	"\n" +
	"CREATE TABLE `sgo_users` (\n" +
	"  `user_id` bigint(20) NOT NULL,\n" +
	"  PRIMARY KEY (`user_id`)\n" +
	") ENGINE=InnoDB;\n"

func TestParseExtractsTables(t *testing.T) {
	tables, err := Parse(sampleDDL)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	orders := tables[0]
	assert.Equal(t, "sgo_orders", orders.Name)
	assert.Equal(t, "order main table", orders.Comment)
	require.Len(t, orders.Columns, 3)

	assert.Equal(t, "order_id", orders.Columns[0].Name)
	assert.Equal(t, "bigint(20) NOT NULL AUTO_INCREMENT", orders.Columns[0].Type)
	assert.Equal(t, "order primary key", orders.Columns[0].Comment)

	// column without COMMENT keeps an empty comment
	assert.Equal(t, "status", orders.Columns[2].Name)
	assert.Empty(t, orders.Columns[2].Comment)
}

func TestParseIndexes(t *testing.T) {
	tables, err := Parse(sampleDDL)
	require.NoError(t, err)

	orders := tables[0]
	require.Len(t, orders.Indexes, 2) // foreign key constraint is dropped

	assert.Equal(t, IndexPrimaryKey, orders.Indexes[0].Kind)
	assert.Equal(t, "PRIMARY KEY (`order_id`)", orders.Indexes[0].Columns)

	assert.Equal(t, IndexSecondary, orders.Indexes[1].Kind)
	assert.Equal(t, "idx_user_id", orders.Indexes[1].Name)
	assert.Equal(t, "`user_id`", orders.Indexes[1].Columns)
}

func TestParseDefaultComment(t *testing.T) {
	tables, err := Parse(sampleDDL)
	require.NoError(t, err)

	assert.Equal(t, DefaultTableComment, tables[1].Comment)
}

func TestParseMultilineAndCaseInsensitive(t *testing.T) {
	ddl := "create table `events` (`id` int NOT NULL) engine=MyISAM;"

	tables, err := Parse(ddl)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "events", tables[0].Name)
	require.Len(t, tables[0].Columns, 1)
	assert.Equal(t, "int NOT NULL", tables[0].Columns[0].Type)
}

func TestParseNoTables(t *testing.T) {
	_, err := Parse("SELECT 1;")
	require.Error(t, err)
	assert.True(t, dbkberrors.IsType(err, dbkberrors.ErrTypeParse))
}

func TestParseEmptyBody(t *testing.T) {
	ddl := "CREATE TABLE `ghost` (\n  -- placeholder\n) ENGINE=InnoDB;"

	tables, err := Parse(ddl)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Empty(t, tables[0].Columns)
}
