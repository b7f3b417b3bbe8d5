package html

// CSRFCookieName is the double-submit cookie read by the page script.
const CSRFCookieName = "X-CSRF-Token"

// CSRFFormScript exposes window.csrfToken() for fetch calls and injects a hidden _csrf
// field into POST forms, including forms added after load.
func CSRFFormScript() string {
	return `<script>
(function () {
  function getCookie(name) {
    var prefix = name + "=";
    var parts = document.cookie ? document.cookie.split(";") : [];
    for (var i = 0; i < parts.length; i++) {
      var c = parts[i].trim();
      if (c.indexOf(prefix) === 0) return decodeURIComponent(c.substring(prefix.length));
    }
    return "";
  }

  window.csrfToken = function () { return getCookie("` + CSRFCookieName + `"); };

  function injectInto(form) {
    var token = window.csrfToken();
    if (!token) return;
    var method = (form.getAttribute("method") || "GET").toUpperCase();
    if (method !== "POST") return;
    if (form.querySelector("input[name='_csrf']")) return;
    var input = document.createElement("input");
    input.type = "hidden";
    input.name = "_csrf";
    input.value = token;
    form.appendChild(input);
  }
  window.injectCSRF = injectInto;

  function inject() {
    var forms = document.querySelectorAll("form");
    for (var i = 0; i < forms.length; i++) injectInto(forms[i]);
  }

  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", inject);
  } else {
    inject();
  }
})();
</script>`
}
