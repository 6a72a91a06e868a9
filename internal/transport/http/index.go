package httpserver

const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>NEM12 meter reads</title>
</head>
<body>
<h1>NEM12 meter reads</h1>
<ul>
<li><code>GET /api/meter-reads?nmi=&amp;page_size=&amp;page_token=</code></li>
<li><code>GET /api/meter-reads/{nmi}/volumes?start=YYYY-MM-DD&amp;end=YYYY-MM-DD</code></li>
<li><code>POST /api/parse</code> with a NEM12 file as the body</li>
<li><code>GET /metrics</code></li>
</ul>
</body>
</html>
`
