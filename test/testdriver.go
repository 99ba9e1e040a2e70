package test

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/godo.v2/glob"
	"gopkg.in/yaml.v3"

	"holdem.com/server/logging"
)

var testDriverLogger = logging.GetZeroLogger("test::testdriver", nil)

type ScriptTestResult struct {
	Filename string
	Passed   bool
	Failures []error
	Disabled bool
}

func (s *ScriptTestResult) addError(e error) {
	s.Failures = append(s.Failures, e)
}

// runs game scripts and captures the results
// and output the results at the end
type TestDriver struct {
	ScriptResult map[string]*ScriptTestResult
	ScriptFiles  []string
}

func NewTestDriver() *TestDriver {
	return &TestDriver{ScriptResult: make(map[string]*ScriptTestResult), ScriptFiles: make([]string, 0)}
}

func LoadGameScript(filename string) (*GameScript, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load file: %s", filename)
	}
	var gameScript GameScript
	if err := yaml.Unmarshal(data, &gameScript); err != nil {
		return nil, errors.Wrapf(err, "Loading yaml failed: %s", filename)
	}
	return &gameScript, nil
}

func (t *TestDriver) RunGameScript(filename string) error {
	fmt.Printf("Running game script: %s\n", filename)
	result := &ScriptTestResult{Filename: filename, Failures: make([]error, 0)}
	t.ScriptResult[filename] = result
	t.ScriptFiles = append(t.ScriptFiles, filename)

	gameScript, err := LoadGameScript(filename)
	if err != nil {
		result.addError(err)
		return err
	}
	if gameScript.Disabled {
		result.Disabled = true
		return nil
	}

	testGameScript := NewTestGameScript(gameScript, filename)
	defer testGameScript.close()
	if e := testGameScript.run(); e != nil {
		result.Passed = false
		result.addError(e)
		testDriverLogger.Error().Msgf("Script %s failed: %v", filename, e)
		return e
	}
	result.Passed = true
	return nil
}

func (t *TestDriver) ReportResult() bool {
	passed := true
	for _, scriptFile := range t.ScriptFiles {
		result := t.ScriptResult[scriptFile]
		if result.Disabled {
			fmt.Printf("Script %s is disabled\n", result.Filename)
			continue
		}

		if len(result.Failures) != 0 {
			passed = false
			// failed and report errors
			fmt.Printf("Script %s failed\n", scriptFile)
			fmt.Printf("===========================\n")
			for _, e := range result.Failures {
				fmt.Printf("%s\n", e.Error())
			}
			fmt.Printf("===========================\n")
		}
	}
	return passed
}

// findGameScripts returns a single script, or every yaml script under a directory.
func findGameScripts(fileOrDir string, testName string) ([]string, error) {
	info, err := os.Stat(fileOrDir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s does not exist", fileOrDir)
	}
	pattern := fileOrDir
	if info.IsDir() {
		pattern = fmt.Sprintf("%s/**/*.yaml", fileOrDir)
	}
	files, _, err := glob.Glob([]string{pattern})
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to get game script file(s) from dir: %s", fileOrDir)
	}

	var scripts []string
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if testName != "" && !strings.Contains(file.Name(), testName) {
			continue
		}
		scripts = append(scripts, file.Path)
	}
	return scripts, nil
}

// RunGameScriptTests runs a single script or every yaml script in a directory tree.
func RunGameScriptTests(fileOrDir string, testName string) error {
	files, err := findGameScripts(fileOrDir, testName)
	if err != nil {
		return err
	}

	testDriver := NewTestDriver()
	for _, file := range files {
		fmt.Printf("----------------------------------------------\n")
		testDriver.RunGameScript(file)
		fmt.Printf("----------------------------------------------\n")
	}

	if !testDriver.ReportResult() {
		return fmt.Errorf("One or more scripts failed")
	}
	fmt.Printf("All scripts passed\n")
	return nil
}
