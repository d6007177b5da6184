package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskListCollectionIsSeparateFromLegacyTasks(t *testing.T) {
	assert.NotEqual(t, LegacyTasksCollection, TasksCollection)
	assert.NotEqual(t, UsersCollection, TasksCollection)
}
