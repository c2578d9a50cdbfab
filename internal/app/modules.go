package app

import (
	"github.com/vk/edgeflow/internal/registry"
	"github.com/vk/edgeflow/modules/debug"
	"github.com/vk/edgeflow/modules/delay"
	"github.com/vk/edgeflow/modules/httppush"
	"github.com/vk/edgeflow/modules/inject"
	"github.com/vk/edgeflow/modules/minmax"
	"github.com/vk/edgeflow/modules/movingavg"
	"github.com/vk/edgeflow/modules/socketio"
)

// coreModules is the definitive list of all processor modules compiled into
// the edgeflow binary.
var coreModules = []registry.Module{
	&inject.Module{},
	&debug.Module{},
	&delay.Module{},
	&movingavg.Module{},
	&minmax.Module{},
	&httppush.Module{},
	&socketio.Module{},
}
