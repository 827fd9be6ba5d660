package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tauraamui/xerror"
	"github.com/tauraamui/yuvcapture/pkg/configdef"
	"github.com/tauraamui/yuvcapture/pkg/log"
)

type prompt struct {
	label string
	text  string
	dest  *int
}

func load(in io.Reader, out io.Writer, showPrompts bool) (configdef.Values, error) {
	var values configdef.Values

	prompts := []prompt{
		{label: "frame count", text: "Enter the number of frames to capture: ", dest: &values.FrameCount},
		{label: "width", text: "Enter the desired video width: ", dest: &values.Width},
		{label: "height", text: "Enter the desired video height: ", dest: &values.Height},
		{label: "fps", text: "Enter the desired FPS: ", dest: &values.FPS},
	}

	scanner := bufio.NewScanner(in)
	for _, p := range prompts {
		if showPrompts {
			fmt.Fprint(out, p.text)
		}
		n, err := readInt(scanner)
		if err != nil {
			return configdef.Values{}, xerror.Errorf("%w: %s: %v", configdef.ErrInvalidConfig, p.label, err)
		}
		*p.dest = n
	}

	loadFeedSettings(&values)

	if err := values.RunValidate(); err != nil {
		return configdef.Values{}, err
	}

	log.Info("Resolved image feed: %s, topic [%s]", values.FeedAddress, values.Topic)
	return values, nil
}

func readInt(scanner *bufio.Scanner) (int, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, errors.Wrap(err, "unable to read input")
		}
		return 0, errors.New("unexpected end of input")
	}

	text := strings.TrimSpace(scanner.Text())
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, errors.Errorf("%q is not an integer", text)
	}
	return n, nil
}

func loadFeedSettings(values *configdef.Values) {
	values.FeedAddress = envOrDefault(feedEnv, configdef.DefaultFeedAddress)
	values.Topic = envOrDefault(topicEnv, configdef.DefaultTopic)
	values.Converter = os.Getenv(converterEnv)
	values.ResultsRoot = configdef.DefaultResultsRoot
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); len(v) > 0 {
		return v
	}
	return def
}
