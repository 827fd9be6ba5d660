package config

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tauraamui/yuvcapture/pkg/configdef"
	"github.com/tauraamui/yuvcapture/pkg/log"
)

type LoadConfigTestSuite struct {
	suite.Suite
	out          *bytes.Buffer
	resetLogging func()
}

func (suite *LoadConfigTestSuite) SetupSuite() {
	suite.resetLogging = log.Silence()
}

func (suite *LoadConfigTestSuite) TearDownSuite() {
	suite.resetLogging()
}

func (suite *LoadConfigTestSuite) SetupTest() {
	suite.out = &bytes.Buffer{}
	os.Unsetenv(feedEnv)
	os.Unsetenv(topicEnv)
	os.Unsetenv(converterEnv)
}

func (suite *LoadConfigTestSuite) resolve(input string, showPrompts bool) (configdef.Values, error) {
	return NewPromptResolver(strings.NewReader(input), suite.out, showPrompts).Resolve()
}

func (suite *LoadConfigTestSuite) TestResolveReadsFourIntegers() {
	values, err := suite.resolve("3\n4\n4\n1\n", false)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 3, values.FrameCount)
	assert.Equal(suite.T(), 4, values.Width)
	assert.Equal(suite.T(), 4, values.Height)
	assert.Equal(suite.T(), 1, values.FPS)
	assert.Empty(suite.T(), suite.out.String())
}

func (suite *LoadConfigTestSuite) TestResolvePrintsPromptsWhenInteractive() {
	_, err := suite.resolve("10\n640\n480\n30\n", true)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(),
		"Enter the number of frames to capture: "+
			"Enter the desired video width: "+
			"Enter the desired video height: "+
			"Enter the desired FPS: ",
		suite.out.String(),
	)
}

func (suite *LoadConfigTestSuite) TestResolveToleratesSurroundingWhitespace() {
	values, err := suite.resolve("  5 \r\n 8\n6\t\n2\n", false)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 5, values.FrameCount)
	assert.Equal(suite.T(), 8, values.Width)
	assert.Equal(suite.T(), 6, values.Height)
	assert.Equal(suite.T(), 2, values.FPS)
}

func (suite *LoadConfigTestSuite) TestResolveAppliesFeedDefaults() {
	values, err := suite.resolve("3\n4\n4\n1\n", false)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), configdef.DefaultFeedAddress, values.FeedAddress)
	assert.Equal(suite.T(), configdef.DefaultTopic, values.Topic)
	assert.Equal(suite.T(), configdef.DefaultResultsRoot, values.ResultsRoot)
	assert.Empty(suite.T(), values.Converter)
}

func (suite *LoadConfigTestSuite) TestResolveReadsFeedSettingsFromEnv() {
	os.Setenv(feedEnv, "mock://?fps=5")
	os.Setenv(topicEnv, "/front/image_raw")
	os.Setenv(converterEnv, "native")
	defer func() {
		os.Unsetenv(feedEnv)
		os.Unsetenv(topicEnv)
		os.Unsetenv(converterEnv)
	}()

	values, err := suite.resolve("3\n4\n4\n1\n", false)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "mock://?fps=5", values.FeedAddress)
	assert.Equal(suite.T(), "/front/image_raw", values.Topic)
	assert.Equal(suite.T(), "native", values.Converter)
}

func (suite *LoadConfigTestSuite) TestResolveFailsOnNonIntegerInput() {
	values, err := suite.resolve("3\nwide\n4\n1\n", false)
	require.Error(suite.T(), err)
	assert.Empty(suite.T(), values)

	assert.True(suite.T(), errors.Is(err, configdef.ErrInvalidConfig))
	assert.EqualError(suite.T(), err, `invalid configuration: width: "wide" is not an integer`)
}

func (suite *LoadConfigTestSuite) TestResolveFailsOnEarlyEndOfInput() {
	_, err := suite.resolve("3\n4\n", false)
	require.Error(suite.T(), err)
	assert.EqualError(suite.T(), err, "invalid configuration: height: unexpected end of input")
}

func (suite *LoadConfigTestSuite) TestResolveFailsValidation() {
	_, err := suite.resolve("3\n5\n4\n1\n", false)
	require.Error(suite.T(), err)
	assert.True(suite.T(), errors.Is(err, configdef.ErrInvalidConfig))
	assert.EqualError(suite.T(), err, "invalid configuration: yuv420 width and height must be even, got 5x4")
}

func TestLoadConfigTestSuite(t *testing.T) {
	suite.Run(t, &LoadConfigTestSuite{})
}
