package algo

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/elektrokombinacija/mapf-solver/internal/core"
)

// ErrNoPath is the sentinel cause wrapped by agentNoPathErr; callers
// use errors.Is(err, ErrNoPath) to recognize a per-agent planning
// failure regardless of which agent it came from.
var ErrNoPath = errors.New("no path found for agent")

func agentNoPathErr(agent core.AgentID) error {
	return errors.Wrap(ErrNoPath, fmt.Sprintf("agent %d", agent))
}
